// Package apperror holds the error taxonomy shared by services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Code    int
	Message string
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

func BadRequest(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

// Internal wraps an unexpected failure. The message is generic; the cause stays in Err
// for server-side logging only.
func Internal(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
