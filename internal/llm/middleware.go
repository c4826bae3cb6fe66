package llm

import (
	"context"
	"log"
	"time"
)

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit throttles calls to the backend. If rps <= 0 it is a pass-through.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt, input)
}

// -------- Timeout --------

// Timeout bounds every call with d. The limiter wait counts against it, so a
// saturated backend degrades to the fallback path instead of stalling.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Client
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GenerateText(ctx, prompt, input)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. Provide a custom logger
// or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	kind := KindFrom(ctx)
	start := time.Now()
	l.log.Printf("LLM request (%s via %s): %d bytes", kind, l.next.Name(), len(composePrompt(prompt, input)))
	out, err := l.next.GenerateText(ctx, prompt, input)
	if err != nil {
		l.log.Printf("LLM error (%s) after %s: %v", kind, time.Since(start).Round(time.Millisecond), err)
		return "", err
	}
	l.log.Printf("LLM response (%s) in %s: %d bytes", kind, time.Since(start).Round(time.Millisecond), len(out))
	return out, nil
}
