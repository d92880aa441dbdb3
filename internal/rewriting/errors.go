package rewriting

import "fmt"

// APICallError represents a failed call to the completion service.
// The cause keeps the llm classification so callers can decide on retries.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// GenerationError represents model output that could not be turned into bullets
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bullet generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bullet generation error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
