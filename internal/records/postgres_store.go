package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStoreWithDB(db), nil
}

// NewPostgresStoreWithDB wraps an already opened handle.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ensureSchema creates the table on first use. A failed attempt is retried by
// the next caller, and the DDL never inherits a caller's cancellation.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	_, err := s.db.ExecContext(context.WithoutCancel(ctx), `
CREATE TABLE IF NOT EXISTS generation_records (
  id TEXT PRIMARY KEY,
  project_name TEXT NOT NULL,
  group_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  files TEXT NOT NULL DEFAULT '[]',
  degraded TEXT NOT NULL DEFAULT '[]',
  archive TEXT NOT NULL DEFAULT '',
  archive_url TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_generation_records_project ON generation_records (project_name, created_at DESC);
`)
	if err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, rec Record) error {
	n, err := normalize(rec)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("records schema: %w", err)
	}
	files, err := json.Marshal(n.Files)
	if err != nil {
		return err
	}
	degraded, err := json.Marshal(n.Degraded)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO generation_records (
  id, project_name, group_id, status, files, degraded, archive, archive_url, error, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id)
DO UPDATE SET status=EXCLUDED.status,
  files=EXCLUDED.files,
  degraded=EXCLUDED.degraded,
  archive=EXCLUDED.archive,
  archive_url=EXCLUDED.archive_url,
  error=EXCLUDED.error`,
		n.ID, n.ProjectName, n.GroupID, string(n.Status), string(files), string(degraded),
		n.Archive, n.ArchiveURL, n.Error, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("put record %s: %w", n.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const selectColumns = `SELECT id, project_name, group_id, status, files, degraded, archive, archive_url, error, created_at
FROM generation_records`

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		status   string
		files    string
		degraded string
	)
	err := row.Scan(&rec.ID, &rec.ProjectName, &rec.GroupID, &status, &files, &degraded,
		&rec.Archive, &rec.ArchiveURL, &rec.Error, &rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return Record{}, fmt.Errorf("decode files of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(degraded), &rec.Degraded); err != nil {
		return Record{}, fmt.Errorf("decode degraded of %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, fmt.Errorf("records schema: %w", err)
	}
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, strings.TrimSpace(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) ListByProject(ctx context.Context, project string, limit int) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("records schema: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
WHERE project_name = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, strings.TrimSpace(project), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
