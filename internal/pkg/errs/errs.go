/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a user-friendly message, the HTTP status (if any) and the
underlying cause.
*/
package errs

import (
	"errors"
	"fmt"
	"strings"

	"watchparty/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code that produced this error, or 0 for local errors.
	Status int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the standard Go error interface.
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("error code %d: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("error code %d: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// NewError constructs a *CustomError from a predefined error code.
// A details element that is an error becomes the Cause; the remaining details are
// printf arguments for message templates containing a verb. Unknown codes map to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Warn("Unknown error code requested", "requested_code", code)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr

	var args []any
	for _, d := range details {
		if err, ok := d.(error); ok && customErr.Cause == nil {
			customErr.Cause = err
			continue
		}
		args = append(args, d)
	}

	if strings.Contains(customErr.Message, "%") {
		if len(args) == 0 {
			args = []any{"unknown reason"}
		}
		customErr.Message = fmt.Sprintf(customErr.Message, args...)
	}

	return &customErr
}

// WithStatus returns a copy of e carrying the given HTTP status.
func (e *CustomError) WithStatus(status int) *CustomError {
	c := *e
	c.Status = status
	return &c
}

// CodeOf returns the business code of err, or ErrUnknown if err is not a CustomError.
// It returns 0 for a nil error.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return ErrUnknown
}

// Is reports whether err carries the given business code.
func Is(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}

// IsTransient reports whether err is a transport failure that a retry may cure.
func IsTransient(err error) bool {
	_, ok := transientCodes[CodeOf(err)]
	return ok
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	return errorMap[ErrUnknown].Message
}
