// Package apperror defines the fault kinds the API distinguishes and the
// mapping from each kind to an HTTP status.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnclassified Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindRateLimited
	KindConflict
	KindBadRequest
)

// Error is a classified failure. Fields holds field-keyed messages for
// KindValidation and is nil otherwise.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
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

func Unauthenticated(message string) *Error {
	if message == "" {
		message = "Unauthenticated"
	}
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound builds the error for a missing row of the given model, e.g.
// NotFound("task") reads "task not found".
func NotFound(model string) *Error {
	return &Error{Kind: KindNotFound, Message: model + " not found"}
}

func RouteNotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "The requested URL was not found"}
}

func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation errors", Fields: fields}
}

// InvalidField is a one-field validation failure.
func InvalidField(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

func TooManyRequests() *Error {
	return &Error{Kind: KindRateLimited, Message: "Too many requests"}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Wrap attaches a cause to an unclassified failure so logs keep the detail
// while clients only see the redacted message.
func Wrap(err error, message string) *Error {
	return &Error{Kind: KindUnclassified, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnclassified
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
