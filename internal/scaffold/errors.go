package scaffold

import (
	"errors"
	"fmt"
)

// Kind classifies request failures for callers.
type Kind string

const (
	KindInputValidation   Kind = "input_validation"
	KindFallbackExhausted Kind = "fallback_exhausted"
	KindInternal          Kind = "internal"
)

// Error is returned by Service.Generate. Msg is safe to show to clients
// except for KindInternal, whose detail lives in Cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// KindOf extracts the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
