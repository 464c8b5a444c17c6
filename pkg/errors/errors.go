package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API error carrying the code and HTTP status written into the response envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an Error without a cause.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an Error around err. The cause is kept out of the JSON body.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Base errors. Handlers and services Clone them to override the message.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	// ErrInvalidState flags dirty historical data. Read paths log it and degrade instead of returning it.
	ErrInvalidState = New("INVALID_STATE", http.StatusUnprocessableEntity, "data integrity violation")
	ErrCacheMiss    = errors.New("cache miss")
)

// AccessDenied returns the generic error surfaced for both missing and out-of-scope entities,
// so callers cannot probe which records exist in other tenants.
func AccessDenied() *Error {
	return Clone(ErrForbidden, "you do not have access to this resource")
}

// FromError returns err as an *Error, mapping anything untyped to INTERNAL_ERROR.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing the message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
