package generator

import (
	"context"
	"fmt"

	"springforge/internal/projectspec"
)

// Resolver produces the content of one file: the primary strategy once and,
// when it fails, the fallback renderer once. No retries.
type Resolver struct {
	primary  Primary
	fallback *Fallback
}

func NewResolver(primary Primary, fallback *Fallback) *Resolver {
	return &Resolver{primary: primary, fallback: fallback}
}

// Resolve never fails because of the primary strategy alone. An error means
// the fallback could not produce content either and wraps
// ErrFallbackExhausted.
func (r *Resolver) Resolve(ctx context.Context, identifier string, spec projectspec.Spec) (Artifact, error) {
	res := r.primary.Generate(ctx, identifier, spec)
	if res.OK() {
		return Artifact{Identifier: identifier, Content: res.Content(), Strategy: StrategyPrimary}, nil
	}
	if r.fallback == nil {
		return Artifact{}, fmt.Errorf("%w: %s: no fallback renderer", ErrFallbackExhausted, identifier)
	}
	out, err := r.fallback.Render(ctx, identifier, spec)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Identifier: identifier,
		Content:    out,
		Strategy:   StrategyFallback,
		Degraded:   res.Reason(),
	}, nil
}
