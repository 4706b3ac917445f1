package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist in the caller's
// partition. Entities owned by other users report the same error so the API
// cannot be used to probe for their existence.
var ErrNotFound = errors.New("not found")

// ValidationError marks a caller-supplied input as unusable.
type ValidationError struct {
	msg string
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
