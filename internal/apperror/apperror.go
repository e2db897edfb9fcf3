// Package apperror defines the error kinds shared by the services and the
// handlers. Services return an *AppError; handlers pick a flash message or
// a status code from its kind with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream error")
)

// AppError is a failure a user may see. Message is safe to display.
type AppError struct {
	Err     error  // kind sentinel
	Message string // shown to the user
	Field   string // form field at fault, validation only
	Cause   error  // underlying failure, upstream only
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the kind and, when set, the cause, so both
// errors.Is(err, ErrUpstream) and errors.Is(err, context.DeadlineExceeded)
// hold for a timed-out provider call.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// NotFound reports a missing record. Records owned by someone else are
// reported the same way.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// ValidationFailed reports bad input in field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation, such as a taken username.
func Conflict(resource string, key any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %v already exists", resource, key),
	}
}

// Forbidden reports a caller without permission for the operation.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidCredentials is returned for every failed login. It never says
// whether the username exists.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Invalid username or password",
	}
}

// Upstream wraps a failure of an external dependency (the inference API).
// The message carries the cause's text so it can be shown to the user.
func Upstream(service string, cause error) *AppError {
	msg := service + " request failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
		Cause:   cause,
	}
}

// MessageOf returns the user-facing message of the first *AppError in err's
// chain, or fallback when there is none.
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
