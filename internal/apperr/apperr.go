// Package apperr defines the error kinds the service layer reports and how
// each kind maps onto an HTTP status.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unauthenticated
	Forbidden
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure with a message safe to show to clients.
// Err holds the underlying cause, if any, and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Invalid(msg string) *Error              { return New(InvalidInput, msg) }
func Unauthorized(msg string) *Error         { return New(Unauthenticated, msg) }
func Denied(msg string) *Error               { return New(Forbidden, msg) }
func Missing(msg string) *Error              { return New(NotFound, msg) }
func Conflicting(msg string) *Error          { return New(Conflict, msg) }
func Internalf(msg string, err error) *Error { return Wrap(Internal, msg, err) }

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind onto its response status code.
func HTTPStatus(k Kind) int {
	switch k {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the status and client-facing message for err. Errors that
// are not classified, and Internal errors, collapse to a generic message.
func Public(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == Internal {
		return http.StatusInternalServerError, "internal server error"
	}
	return HTTPStatus(e.Kind), e.Message
}
