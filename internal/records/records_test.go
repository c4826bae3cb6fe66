package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, Record{ID: "a", ProjectName: "shop", CreatedAt: base}))
	require.NoError(t, s.Put(ctx, Record{ID: "b", ProjectName: "shop", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Put(ctx, Record{ID: "c", ProjectName: "other", CreatedAt: base}))

	list, err := s.ListByProject(ctx, "shop", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, StatusSucceeded, list[0].Status)

	list, err = s.ListByProject(ctx, "shop", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsIncompleteRecord(t *testing.T) {
	s := NewMemoryStore()
	require.Error(t, s.Put(context.Background(), Record{ProjectName: "shop"}))
	require.Error(t, s.Put(context.Background(), Record{ID: "x"}))
}

func TestPostgresStorePutAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStoreWithDB(db)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS generation_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO generation_records").
		WithArgs("g1", "shop", "com.example", "succeeded", `["pom.xml"]`, `["Entity"]`,
			"/out/shop.zip", "", "", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(ctx, Record{
		ID: "g1", ProjectName: "shop", GroupID: "com.example",
		Files: []string{"pom.xml"}, Degraded: []string{"Entity"},
		Archive: "/out/shop.zip", CreatedAt: at,
	}))

	cols := []string{"id", "project_name", "group_id", "status", "files", "degraded", "archive", "archive_url", "error", "created_at"}
	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("g1", "shop", "com.example", "succeeded", `["pom.xml"]`, `["Entity"]`, "/out/shop.zip", "", "", at))

	rec, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pom.xml"}, rec.Files)
	assert.Equal(t, []string{"Entity"}, rec.Degraded)
	assert.Equal(t, at, rec.CreatedAt)

	mock.ExpectQuery(`WHERE id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(cols))
	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSchemaFailureSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStoreWithDB(db)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = s.Put(context.Background(), Record{ID: "g1", ProjectName: "shop"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSchemaRetriedAfterFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStoreWithDB(db)
	cols := []string{"id", "project_name", "group_id", "status", "files", "degraded", "archive", "archive_url", "error", "created_at"}

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("connection reset"))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE project_name = \$1`).WithArgs("shop", 100).WillReturnRows(sqlmock.NewRows(cols))

	_, err = s.ListByProject(context.Background(), "shop", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	list, err := s.ListByProject(context.Background(), "shop", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSchemaIgnoresCallerCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStoreWithDB(db)
	cols := []string{"id", "project_name", "group_id", "status", "files", "degraded", "archive", "archive_url", "error", "created_at"}

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE project_name = \$1`).WithArgs("shop", 100).WillReturnRows(sqlmock.NewRows(cols))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ListByProject(cancelled, "shop", 0)
	require.ErrorIs(t, err, context.Canceled)

	// The table exists now, so only the query runs.
	_, err = s.ListByProject(context.Background(), "shop", 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListByProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStoreWithDB(db)
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE project_name = \$1 ORDER BY created_at DESC`).
		WithArgs("shop", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_name", "group_id", "status", "files", "degraded", "archive", "archive_url", "error", "created_at"}).
			AddRow("g2", "shop", "com.example", "failed", `[]`, `[]`, "", "", "boom", at).
			AddRow("g1", "shop", "com.example", "succeeded", `["pom.xml"]`, `[]`, "/out/shop.zip", "", "", at))

	list, err := s.ListByProject(context.Background(), "shop", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, StatusFailed, list[0].Status)
	assert.Equal(t, "boom", list[0].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

type countingStore struct {
	*MemoryStore
	lists int
}

func (c *countingStore) ListByProject(ctx context.Context, project string, limit int) ([]Record, error) {
	c.lists++
	return c.MemoryStore.ListByProject(ctx, project, limit)
}

func TestCachedStoreInvalidatesOnPut(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, Record{ID: "a", ProjectName: "shop"}))
	_, err = s.ListByProject(ctx, "shop", 10)
	require.NoError(t, err)
	list, err := s.ListByProject(ctx, "shop", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, backing.lists)

	require.NoError(t, s.Put(ctx, Record{ID: "b", ProjectName: "shop", CreatedAt: time.Now().Add(time.Hour)}))
	list, err = s.ListByProject(ctx, "shop", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 2, backing.lists)
}
