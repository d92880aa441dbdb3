package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default job description limits
const (
	DefaultMinJobDescriptionChars = 100
	DefaultMaxJobDescriptionChars = 20000
	DefaultMinJobDescriptionWords = 20
)

// JobDescriptionLimits bounds the accepted job description size
type JobDescriptionLimits struct {
	MinChars int
	MaxChars int
	MinWords int
}

// DefaultJobDescriptionLimits returns the limits used when nothing is configured
func DefaultJobDescriptionLimits() JobDescriptionLimits {
	return JobDescriptionLimits{
		MinChars: DefaultMinJobDescriptionChars,
		MaxChars: DefaultMaxJobDescriptionChars,
		MinWords: DefaultMinJobDescriptionWords,
	}
}

// ValidateJobDescription checks a job description against the configured limits.
// Length is measured in characters after trimming surrounding whitespace.
func ValidateJobDescription(text string, limits JobDescriptionLimits) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Field: "jobDescription", Message: "job description is required"}
	}

	chars := utf8.RuneCountInString(trimmed)
	if limits.MinChars > 0 && chars < limits.MinChars {
		return &ValidationError{
			Field:   "jobDescription",
			Message: fmt.Sprintf("job description is too short: %d characters, minimum is %d", chars, limits.MinChars),
		}
	}
	if limits.MaxChars > 0 && chars > limits.MaxChars {
		return &ValidationError{
			Field:   "jobDescription",
			Message: fmt.Sprintf("job description is too long: %d characters, maximum is %d", chars, limits.MaxChars),
		}
	}

	words := len(strings.Fields(trimmed))
	if limits.MinWords > 0 && words < limits.MinWords {
		return &ValidationError{
			Field:   "jobDescription",
			Message: fmt.Sprintf("job description has %d words, minimum is %d", words, limits.MinWords),
		}
	}

	return nil
}
