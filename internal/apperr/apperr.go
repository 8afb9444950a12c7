// Package apperr defines RuStream's error kinds and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the response behaviors spec.md §7
// names. Each kind maps to exactly one status code and rendering mode.
type Kind string

const (
	KindBadCredentials  Kind = "bad_credentials"
	KindInvalidSession  Kind = "invalid_session"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindBadRequest      Kind = "bad_request"
	KindUnprocessable   Kind = "unprocessable"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindInternal        Kind = "internal"
)

// Error is RuStream's typed error: a Kind, a user-visible detail, and an
// optional wrapped cause kept for logging but never rendered to the client.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func BadCredentials(detail string) *Error  { return New(KindBadCredentials, detail) }
func InvalidSession(detail string) *Error  { return New(KindInvalidSession, detail) }
func Forbidden(detail string) *Error       { return New(KindForbidden, detail) }
func NotFound(detail string) *Error        { return New(KindNotFound, detail) }
func BadRequest(detail string) *Error      { return New(KindBadRequest, detail) }
func Unprocessable(detail string) *Error   { return New(KindUnprocessable, detail) }
func PayloadTooLarge(detail string) *Error { return New(KindPayloadTooLarge, detail) }
func Internal(detail string, err error) *Error {
	return Wrap(KindInternal, detail, err)
}

// StatusCode maps a Kind to the HTTP status spec.md §7 assigns it.
func StatusCode(kind Kind) int {
	switch kind {
	case KindBadCredentials:
		return http.StatusUnauthorized
	case KindInvalidSession:
		return http.StatusFound
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err, returning ok=false if err does not carry
// one (in which case callers should treat it as KindInternal).
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Renders reports whether this kind is rendered as an HTML error page
// rather than a JSON body.
func (k Kind) RendersHTML() bool {
	switch k {
	case KindForbidden, KindNotFound:
		return true
	default:
		return false
	}
}
