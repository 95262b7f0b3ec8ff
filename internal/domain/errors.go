package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("employee not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrSearchUnavailable = errors.New("search index is not configured")
)

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports rejected input, per field.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Error
	}
	if e.Message == "" {
		return strings.Join(parts, "; ")
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// NewValidationError returns a ValidationError with a message and optional field errors.
func NewValidationError(msg string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}
