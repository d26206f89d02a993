package domain

import (
	"errors"
	"fmt"
)

// Domain errors shared by services, repositories and handlers
var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("insufficient permission")
	ErrNotFound          = errors.New("record not found")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("record already exists")
	ErrAlreadyVoted      = errors.New("user already voted in this poll")
	ErrPaymentInProgress = errors.New("another payment is being created")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
