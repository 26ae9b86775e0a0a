// Package apperr defines the error taxonomy shared by services and handlers.
//
// Services return typed errors; the handler layer maps them to status codes.
// Anything untyped is treated as an internal failure and logged server-side.
package apperr

import "errors"

// ValidationError reports bad input or a violated business rule: a closed
// academic year, a duplicate name, an id that resolves to nothing, or a state
// transition that is not allowed. Maps to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError with the given user-facing message.
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// ForbiddenError reports an authenticated caller acting outside its
// permissions. Maps to 403.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// Forbidden builds a ForbiddenError with the given user-facing message.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// UnauthorizedError reports a missing, invalid or expired credential, or an
// inactive account. Maps to 401.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// Unauthorized builds an UnauthorizedError with the given user-facing message.
func Unauthorized(message string) error {
	return &UnauthorizedError{Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
