package model

import "errors"

// Error kinds returned by stores and services. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("already exists")
	ErrAuth       = errors.New("invalid username or password")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage failure")

	// ErrObjectNotFound is returned by Storage implementations for missing objects.
	ErrObjectNotFound = errors.New("object not found")
)

// ValidationError describes malformed or missing input. It matches ErrValidation.
type ValidationError struct {
	Message string
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConflictError reports a uniqueness violation. It matches ErrConflict.
type ConflictError struct {
	Message string
}

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
