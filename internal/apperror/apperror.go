package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err      error  // actual error
	Message  string // Human-readable error message
	Field    string // Optional: field causing the error
	Resource string // Optional: kind of record involved ("quote", "user")
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:      ErrNotFound,
		Message:  fmt.Sprintf("%s not found with id %v", resource, id),
		Resource: resource,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource string, key any) *AppError {
	return &AppError{
		Err:      ErrConflict,
		Message:  fmt.Sprintf("%s conflict with key %v", resource, key),
		Resource: resource,
	}
}

// Forbidden returns an AppError indicating the caller may not perform the action.
// Handlers turn it into a redirect that shows Message to the user.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// IsNotFoundResource reports whether err is a NotFound for the given resource kind.
func IsNotFoundResource(err error, resource string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return errors.Is(appErr.Err, ErrNotFound) && appErr.Resource == resource
}
