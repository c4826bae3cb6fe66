package generator

import "errors"

var (
	// ErrFallbackExhausted means neither the primary strategy nor the
	// template renderer could produce content for a file.
	ErrFallbackExhausted = errors.New("fallback exhausted")
	ErrEmptyContent      = errors.New("generator returned empty content")
)

// Result is the outcome of one primary generation attempt: either
// Generated(content) or Failed(reason).
type Result struct {
	content string
	reason  error
}

func Generated(content string) Result { return Result{content: content} }

func Failed(reason error) Result {
	if reason == nil {
		reason = errors.New("unspecified failure")
	}
	return Result{reason: reason}
}

func (r Result) OK() bool        { return r.reason == nil }
func (r Result) Content() string { return r.content }
func (r Result) Reason() error   { return r.reason }

// Strategy names the producer of an artifact.
type Strategy int

const (
	StrategyPrimary Strategy = iota
	StrategyFallback
)

func (s Strategy) String() string {
	switch s {
	case StrategyPrimary:
		return "primary"
	case StrategyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Artifact is the content produced for one file.
type Artifact struct {
	Identifier string
	Content    string
	Strategy   Strategy
	// Degraded holds the primary failure when Strategy is StrategyFallback.
	Degraded error
}
