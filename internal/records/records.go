package records

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("record not found")

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is the persisted outcome of one generation request.
type Record struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"project_name"`
	GroupID     string    `json:"group_id"`
	Status      Status    `json:"status"`
	Files       []string  `json:"files"`
	Degraded    []string  `json:"degraded"`
	Archive     string    `json:"archive,omitempty"`
	ArchiveURL  string    `json:"archive_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists generation records. ListByProject returns newest first.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	ListByProject(ctx context.Context, project string, limit int) ([]Record, error)
	Close() error
}

func normalize(rec Record) (Record, error) {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.ProjectName = strings.TrimSpace(rec.ProjectName)
	if rec.ID == "" {
		return Record{}, errors.New("record id is required")
	}
	if rec.ProjectName == "" {
		return Record{}, errors.New("record project name is required")
	}
	if rec.Status == "" {
		rec.Status = StatusSucceeded
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Files = append([]string(nil), rec.Files...)
	rec.Degraded = append([]string(nil), rec.Degraded...)
	return rec, nil
}
