// Package validation provides input validation for job descriptions and width measurement for generated bullets.
package validation

import "fmt"

// ValidationError represents a rejected pipeline input
//
//nolint:revive // name mirrors the error taxonomy used across the pipeline
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
