package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure so callers can branch without inspecting
// message strings.
type Kind int

const (
	// NotFound covers entities absent or not owned by the caller. Cross-owner
	// access is always NotFound, never Forbidden, to avoid existence leakage.
	NotFound Kind = iota
	// Validation covers rejected input: empty title, malformed priority,
	// temporal invariant violations.
	Validation
	// Conflict covers uniqueness violations raised by the persistence layer.
	Conflict
	// Internal covers unexpected persistence failures.
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err, defaulting to Internal for errors that did
// not originate in the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
