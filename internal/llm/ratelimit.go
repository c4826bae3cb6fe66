package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errLimiterStopped = errors.New("llm: rate limiter stopped")

// rpsLimiter is a token bucket refilled lazily on each Acquire, so it owns
// no goroutine. It allows rps calls per second on average and up to burst
// calls at once.
type rpsLimiter struct {
	mu      sync.Mutex
	rate    float64 // tokens per second
	burst   float64
	tokens  float64
	last    time.Time
	stopped bool
	now     func() time.Time
}

// newRPSLimiter returns nil when rps <= 0; a nil limiter never blocks.
func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rpsLimiter{
		rate:   rps,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
		now:    time.Now,
	}
}

// reserve takes a token if one is available and otherwise reports how long
// until the next one.
func (l *rpsLimiter) reserve() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return 0, errLimiterStopped
	}
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
	if l.tokens >= 1 {
		l.tokens--
		return 0, nil
	}
	missing := 1 - l.tokens
	return time.Duration(missing / l.rate * float64(time.Second)), nil
}

// Acquire blocks until a token is available or the context is canceled.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		wait, err := l.reserve()
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Stop makes every later Acquire fail.
func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}
