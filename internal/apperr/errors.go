// Package apperr defines the closed set of errors the application layer can
// surface to callers. Each error carries a Kind; the HTTP boundary maps kinds
// to status codes in one place.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an Error with its category.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnknownTeam
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnknownTeam:
		return "unknown_team"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the single error type returned by the registry, access and logs
// packages. Message is safe to show to users; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, apperr.Forbidden(""))
// holds for any forbidden error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// MissingParameter is a validation error naming the absent parameter.
func MissingParameter(name string) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("missing required parameter: %s", name)}
}

func UnknownTeam(msg string) *Error { return &Error{Kind: KindUnknownTeam, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

// Unavailable wraps a backend failure. The cause is never shown to users.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
