// Package apperr describes failures returned by the service layer.
//
// Every error leaving a service is an *Error carrying a Kind. Transports map
// the Kind to a status code and expose only Message to the caller; the wrapped
// cause is kept for logs.
package apperr

import (
	"errors"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	Unauthorized
	Unprocessable
	Conflict
	Validation
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Unprocessable:
		return "unprocessable"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation"
	case RateLimited:
		return "rate_limited"
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
	if e.Err == nil {
		return e.Message
	}

	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns Internal for errors that carry no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the text a transport may show to the caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}

	return "internal error"
}
