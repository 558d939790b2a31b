// Package errors defines the sentinel errors of the type-ahead service and a
// wrapper type that carries an HTTP status alongside the cause.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidKey marks text that cannot be inserted into the index
	// (empty after folding). Build-time, per-record, never fatal.
	ErrInvalidKey = errors.New("invalid index key")

	// ErrInvalidArgument marks bad query parameters (non-positive limit,
	// unknown kind filter). Surfaced to the caller.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexUnavailable is returned when no snapshot exists and the
	// build failed, so there is nothing to serve.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrSourceUnreachable marks a failed read of the backing catalog
	// during a rebuild.
	ErrSourceUnreachable = errors.New("catalog source unreachable")

	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel with a message and an HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the API should respond
// with. Explicit AppError status wins over sentinel mapping.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexUnavailable), errors.Is(err, ErrSourceUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
