package domain

import (
	"fmt"
	"net/http"
)

// InputError rejects a request before any processing happens. Status is the
// HTTP status the caller should see.
type InputError struct {
	Status  int
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Missing reports a required field that was absent or empty.
func Missing(field string) *InputError {
	return &InputError{Status: http.StatusBadRequest, Field: field, Message: "is required"}
}

// Invalid reports a field with an unacceptable value.
func Invalid(field, message string) *InputError {
	return &InputError{Status: http.StatusBadRequest, Field: field, Message: message}
}

// TooLarge reports input beyond the accepted size.
func TooLarge(field string, limit int) *InputError {
	return &InputError{
		Status:  http.StatusRequestEntityTooLarge,
		Field:   field,
		Message: fmt.Sprintf("exceeds maximum size (%d characters)", limit),
	}
}

// NotFound reports an unknown candidate or resource.
func NotFound(field, id string) *InputError {
	return &InputError{Status: http.StatusNotFound, Field: field, Message: fmt.Sprintf("%q not found", id)}
}
