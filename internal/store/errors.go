package store

import (
	"errors"
	"fmt"
	"net/http"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
)

// Error is a persistence error carrying the HTTP status it maps to.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so errors built with
// WithMessage still satisfy errors.Is against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)

// AsDomainError converts a store failure into the matching domain error.
// Unknown failures become internal errors.
func AsDomainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return domainerrors.Wrap(err, domainerrors.CodeAlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, err.Error())
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "library store failure")
	}
}
