package generator

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"springforge/internal/projectspec"
)

// TemplateStore is the template collaborator of the fallback renderer.
type TemplateStore interface {
	Exists(identifier string) (bool, error)
	WriteIfAbsent(identifier string, content []byte) (bool, error)
	Render(identifier string, data map[string]any) (string, error)
}

// Fallback renders files from templates, synthesizing a missing template
// through the primary strategy and caching it in the store.
type Fallback struct {
	store   TemplateStore
	primary Primary

	inflight    singleflight.Group
	synthesized atomic.Int64
}

func NewFallback(store TemplateStore, primary Primary) *Fallback {
	return &Fallback{store: store, primary: primary}
}

// Synthesized counts templates this renderer has written.
func (f *Fallback) Synthesized() int64 { return f.synthesized.Load() }

// Render produces content for identifier. A failed synthesis is not reported
// directly; it shows up as the missing template when rendering.
func (f *Fallback) Render(ctx context.Context, identifier string, spec projectspec.Spec) (string, error) {
	if err := f.ensureTemplate(ctx, identifier, spec); err != nil {
		log.Printf("fallback: template synthesis for %s failed: %v", identifier, err)
	}
	out, err := f.store.Render(identifier, map[string]any(spec.Clone()))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFallbackExhausted, identifier, err)
	}
	return out, nil
}

// ensureTemplate runs at most one synthesis per identifier at a time; late
// callers share the in-flight result. The shared call is detached from the
// first caller's cancellation so it cannot fail the callers that joined it.
func (f *Fallback) ensureTemplate(ctx context.Context, identifier string, spec projectspec.Spec) error {
	ok, err := f.store.Exists(identifier)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	shared := context.WithoutCancel(ctx)
	_, err, _ = f.inflight.Do(identifier, func() (any, error) {
		if ok, err := f.store.Exists(identifier); err != nil || ok {
			return nil, err
		}
		res := f.primary.Generate(shared, identifier+TemplateSuffix, spec)
		if !res.OK() {
			return nil, res.Reason()
		}
		wrote, err := f.store.WriteIfAbsent(identifier, []byte(res.Content()))
		if err != nil {
			return nil, err
		}
		if wrote {
			f.synthesized.Add(1)
			log.Printf("fallback: created missing template for %s", identifier)
		}
		return nil, nil
	})
	return err
}
