package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can decide whether to continue the run.
type Kind string

const (
	// KindTimeout covers per-operation navigation and selector waits that
	// expired. Non-fatal: the field or target is recorded as unavailable.
	KindTimeout Kind = "timeout"

	// KindSessionIO covers corrupt, missing or unwritable session files.
	// Treated as "no session available", never as a hard failure.
	KindSessionIO Kind = "session_io"

	// KindAuthRequired means the login-state detector stayed false. Not an
	// error condition; resolution needs a human in the loop.
	KindAuthRequired Kind = "auth_required"

	// KindLaunch means the browser engine could not start. The only
	// unrecoverable category.
	KindLaunch Kind = "launch"

	// KindTarget covers any per-target scraping failure. The run continues.
	KindTarget Kind = "target"
)

// Error wraps an underlying failure with its classification and the
// operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without an underlying cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err, or the empty Kind for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err must abort the run. Only launch failures
// qualify; everything else is handled at the component boundary.
func IsFatal(err error) bool {
	return KindOf(err) == KindLaunch
}
