// Package apperror holds the error kinds shared by every layer. Callers wrap
// one of the sentinels and the HTTP layer maps it to a status code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

// Internal wraps cause so both errors.Is(err, ErrInternal) and
// errors.Is(err, cause) hold.
func Internal(cause error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrInternal, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, msg, cause)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
