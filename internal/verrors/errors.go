// Package verrors defines the error taxonomy the cognitive engine surfaces
// to its callers: a small set of kinds, sentinel values for the common
// cases, and wrapping helpers that preserve the kind through the call stack.
package verrors

import (
	"errors"
	"fmt"
)

// Kind tags the taxonomy an error belongs to, independent of its message.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindNotFound              Kind = "not_found"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInvariantViolation    Kind = "invariant_violation"
	KindTimeout               Kind = "timeout"
	KindStorageError          Kind = "storage_error"
)

// Sentinel errors for each kind, matched with errors.Is after wrapping.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrInvariantViolation    = errors.New("invariant violation")
	ErrTimeout               = errors.New("timed out")
	ErrStorageError          = errors.New("storage error")
)

var sentinelByKind = map[Kind]error{
	KindInvalidInput:          ErrInvalidInput,
	KindNotFound:              ErrNotFound,
	KindDependencyUnavailable: ErrDependencyUnavailable,
	KindInvariantViolation:    ErrInvariantViolation,
	KindTimeout:               ErrTimeout,
	KindStorageError:          ErrStorageError,
}

// Error is a structured error carrying a Kind, a human message, and
// optional hints for the caller (spec §7: "structured error with kind,
// message, and optional hints").
type Error struct {
	Kind    Kind
	Message string
	Hints   []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return sentinelByKind[e.Kind]
}

// New builds a structured Error of the given kind.
func New(kind Kind, message string, hints ...string) *Error {
	return &Error{Kind: kind, Message: message, Hints: hints}
}

// Wrap builds a structured Error of the given kind around a cause, matching
// the teacher's fmt.Errorf("...: %w", err) convention but preserving Kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error; otherwise returns KindStorageError as the conservative default,
// since unclassified failures are most often backend I/O.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageError
}

// Is* helpers mirror errors.Is(err, ErrX) for callers that prefer predicate style.

func IsNotFound(err error) bool              { return errors.Is(err, ErrNotFound) }
func IsInvalidInput(err error) bool           { return errors.Is(err, ErrInvalidInput) }
func IsDependencyUnavailable(err error) bool  { return errors.Is(err, ErrDependencyUnavailable) }
func IsInvariantViolation(err error) bool     { return errors.Is(err, ErrInvariantViolation) }
func IsTimeout(err error) bool                { return errors.Is(err, ErrTimeout) }
func IsStorageError(err error) bool           { return errors.Is(err, ErrStorageError) }
