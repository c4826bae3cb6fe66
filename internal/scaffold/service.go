package scaffold

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"springforge/internal/archive"
	"springforge/internal/catalog"
	"springforge/internal/events"
	"springforge/internal/generator"
	"springforge/internal/layout"
	"springforge/internal/projectspec"
	"springforge/internal/records"
	"springforge/internal/workspace"
)

const DefaultWorkers = 4

type Deps struct {
	Catalog   *catalog.Catalog
	Resolver  *generator.Resolver
	Workspace *workspace.Manager
	// Optional. LocalPublisher is used when nil.
	Publisher archive.Publisher
	Records   records.Store
	Events    *events.Broker
	Workers   int
}

// Service turns a project spec into a published source tree and archive.
type Service struct {
	deps Deps
}

func NewService(deps Deps) (*Service, error) {
	if deps.Catalog == nil || deps.Resolver == nil || deps.Workspace == nil {
		return nil, errors.New("scaffold: catalog, resolver and workspace are required")
	}
	if deps.Publisher == nil {
		deps.Publisher = archive.LocalPublisher{}
	}
	if deps.Workers <= 0 {
		deps.Workers = DefaultWorkers
	}
	return &Service{deps: deps}, nil
}

// Result describes a completed generation.
type Result struct {
	GenerationID string
	ProjectName  string
	Archive      string // archive file name
	ArchivePath  string
	ArchiveURL   string
	Files        []string
	// Degraded lists identifiers produced by the fallback renderer.
	Degraded []string
}

func (s *Service) Catalog() *catalog.Catalog { return s.deps.Catalog }

func (s *Service) Workspace() *workspace.Manager { return s.deps.Workspace }

// Generate validates spec, produces every selected file and packages the
// project. Any file that neither strategy can produce fails the whole
// request and leaves the previously published project untouched. Once
// started, a generation runs to completion or to its first failure even if
// the caller's context is cancelled.
func (s *Service) Generate(ctx context.Context, spec projectspec.Spec) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	if err := spec.Validate(); err != nil {
		return nil, newError(KindInputValidation, err.Error(), err)
	}
	name := spec.ProjectName()
	segments := spec.Segments()
	sel := s.deps.Catalog.Select(spec)
	genID := uuid.NewString()
	started := time.Now()

	unlock := s.deps.Workspace.Lock(name)
	defer unlock()

	sess, err := s.deps.Workspace.Begin(name)
	if errors.Is(err, workspace.ErrInvalidName) {
		return nil, newError(KindInputValidation, err.Error(), err)
	}
	if err != nil {
		return nil, s.fail(ctx, genID, spec, newError(KindInternal, "", fmt.Errorf("open workspace: %w", err)))
	}
	s.emit(events.Event{Type: events.TypeStarted, Project: name, GenerationID: genID,
		Message: fmt.Sprintf("%d files", sel.Len())})
	log.Printf("generation %s: project=%s files=%d", genID, name, sel.Len())

	places := layout.New(s.deps.Catalog, sess.Dir())
	var (
		mu       sync.Mutex
		degraded []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.Workers)
	for _, id := range sel.All() {
		g.Go(func() error {
			art, err := s.deps.Resolver.Resolve(gctx, id, spec)
			if err != nil {
				return err
			}
			if art.Degraded != nil {
				log.Printf("generation %s: %s degraded to template: %v", genID, id, art.Degraded)
				mu.Lock()
				degraded = append(degraded, id)
				mu.Unlock()
			}
			if err := sess.Write(places.Resolve(id, segments), art.Content); err != nil {
				return fmt.Errorf("write %s: %w", id, err)
			}
			s.emit(events.Event{Type: events.TypeFile, Project: name, GenerationID: genID,
				File: places.Rel(id, segments), Strategy: art.Strategy.String()})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if derr := sess.Discard(); derr != nil {
			log.Printf("generation %s: discard staging: %v", genID, derr)
		}
		if errors.Is(err, generator.ErrFallbackExhausted) {
			return nil, s.fail(ctx, genID, spec, newError(KindFallbackExhausted, err.Error(), err))
		}
		return nil, s.fail(ctx, genID, spec, newError(KindInternal, "", err))
	}

	files := sess.Files()
	dir, err := sess.Publish()
	if err != nil {
		_ = sess.Discard()
		return nil, s.fail(ctx, genID, spec, newError(KindInternal, "", err))
	}
	sum, err := archive.Build(dir, s.deps.Workspace.ArchivePath(name, archive.Ext))
	if err != nil {
		return nil, s.fail(ctx, genID, spec, newError(KindInternal, "", fmt.Errorf("build archive: %w", err)))
	}
	loc, err := s.deps.Publisher.Publish(ctx, name, sum.Path)
	if err != nil {
		return nil, s.fail(ctx, genID, spec, newError(KindInternal, "", fmt.Errorf("publish archive: %w", err)))
	}
	sort.Strings(degraded)

	res := &Result{
		GenerationID: genID,
		ProjectName:  name,
		Archive:      loc.Name,
		ArchivePath:  loc.Path,
		ArchiveURL:   loc.URL,
		Files:        files,
		Degraded:     degraded,
	}
	s.record(ctx, records.Record{
		ID:          genID,
		ProjectName: name,
		GroupID:     spec.GroupID(),
		Status:      records.StatusSucceeded,
		Files:       files,
		Degraded:    degraded,
		Archive:     loc.Path,
		ArchiveURL:  loc.URL,
		CreatedAt:   started.UTC(),
	})
	s.emit(events.Event{Type: events.TypeArchived, Project: name, GenerationID: genID, File: loc.Name})
	log.Printf("generation %s: done in %s (%d files, %d degraded)", genID, time.Since(started).Round(time.Millisecond), len(files), len(degraded))
	return res, nil
}

// History lists recent generations of a project, newest first.
func (s *Service) History(ctx context.Context, project string, limit int) ([]records.Record, error) {
	if s.deps.Records == nil {
		return []records.Record{}, nil
	}
	return s.deps.Records.ListByProject(ctx, project, limit)
}

func (s *Service) fail(ctx context.Context, genID string, spec projectspec.Spec, e *Error) error {
	name := spec.ProjectName()
	log.Printf("generation %s: project=%s failed: %v", genID, name, e)
	s.record(ctx, records.Record{
		ID:          genID,
		ProjectName: name,
		GroupID:     spec.GroupID(),
		Status:      records.StatusFailed,
		Error:       e.Error(),
	})
	msg := e.Msg
	if e.Kind == KindInternal {
		msg = "internal error"
	}
	s.emit(events.Event{Type: events.TypeFailed, Project: name, GenerationID: genID, Message: msg})
	return e
}

func (s *Service) record(ctx context.Context, rec records.Record) {
	if s.deps.Records == nil {
		return
	}
	if err := s.deps.Records.Put(context.WithoutCancel(ctx), rec); err != nil {
		log.Printf("generation %s: save record: %v", rec.ID, err)
	}
}

func (s *Service) emit(ev events.Event) {
	s.deps.Events.Publish(ev)
}
