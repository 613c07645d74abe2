// Package apperrors provides the typed errors the service layer returns and
// the HTTP layer renders. Every error carries a kind (which selects the HTTP
// status) and a stable machine-readable code.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindRateLimited
)

// HTTPStatus returns the HTTP status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Code    Code
	Message string   // user-facing message
	Details []string // optional list, e.g. every violated password rule
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append([]string(nil), details...)
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

func newError(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation creates a 400 error.
func Validation(code Code, message string, details ...string) *Error {
	e := newError(KindValidation, code, message)
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// Conflict creates a 409 error.
func Conflict(code Code, message string) *Error {
	return newError(KindConflict, code, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(code Code, message string) *Error {
	return newError(KindUnauthorized, code, message)
}

// Forbidden creates a 403 error.
func Forbidden(code Code, message string) *Error {
	return newError(KindForbidden, code, message)
}

// NotFound creates a 404 error.
func NotFound(code Code, message string) *Error {
	return newError(KindNotFound, code, message)
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "An internal error occurred", Cause: cause}
}

// From extracts an *Error from err's chain. Anything else becomes Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
