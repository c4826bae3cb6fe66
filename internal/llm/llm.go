package llm

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("llm: empty response from model")

// Client is a generative text backend. Implementations only perform the API
// call; rate limiting, timeouts and logging are layered on via Middleware.
type Client interface {
	Name() string
	GenerateText(ctx context.Context, prompt string, input any) (string, error)
	Close() error
}

type ctxKeyKind struct{}

// WithKind tags ctx with the file kind being generated, for logs.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, ctxKeyKind{}, strings.TrimSpace(kind))
}

// KindFrom returns the file kind stored in the context.
func KindFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyKind{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}
