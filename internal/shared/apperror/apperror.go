package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport purposes.
type Kind uint8

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindTooManyRequests
	KindStore
)

var kindStatus = map[Kind]int{
	KindUnexpected:      http.StatusInternalServerError,
	KindNotFound:        http.StatusNotFound,
	KindValidation:      http.StatusBadRequest,
	KindConflict:        http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindTooManyRequests: http.StatusTooManyRequests,
	KindStore:           http.StatusInternalServerError,
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindStore:
		return "store"
	default:
		return "unexpected"
	}
}

// Error is the application error rendered by the HTTP error handler.
// Fields carries per-field messages for validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Operational reports whether the message is safe to show to clients.
func (e *Error) Operational() bool {
	return e.Kind != KindUnexpected && e.Kind != KindStore
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func BadRequest(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func TooManyRequests(message string) *Error {
	return New(KindTooManyRequests, message)
}

// Store wraps an infrastructure failure unrelated to input validity.
func Store(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "unexpected error", Err: err}
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusLabel is "fail" for client errors and "error" otherwise.
func StatusLabel(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}
	return "error"
}
