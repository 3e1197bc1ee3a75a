// Package apperr defines the error taxonomy surfaced by workflow operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind int

const (
	// KindUnknown is an unclassified internal error.
	KindUnknown Kind = iota
	// KindUnauthenticated means no valid identity was presented.
	KindUnauthenticated
	// KindForbidden means the identity lacks permission for the operation.
	KindForbidden
	// KindInvalid means the input is malformed or missing required fields.
	KindInvalid
	// KindConflict means a state-machine guard rejected the transition.
	KindConflict
	// KindNotFound means a referenced document does not exist.
	KindNotFound
	// KindFatal means stored state is inconsistent (partial multi-document
	// commit) and needs operator attention.
	KindFatal
)

// Error carries a kind and a human-readable message, optionally wrapping a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Unauthenticated creates a KindUnauthenticated error.
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

// Forbidden creates a KindForbidden error.
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// Invalid creates a KindInvalid error.
func Invalid(msg string) *Error { return New(KindInvalid, msg) }

// Conflict creates a KindConflict error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// NotFound creates a KindNotFound error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Fatal creates a KindFatal error wrapping a cause.
func Fatal(msg string, err error) *Error { return Wrap(KindFatal, msg, err) }

// KindOf returns the kind of err, or KindUnknown if it is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
