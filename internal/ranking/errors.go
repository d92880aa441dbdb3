package ranking

import "fmt"

// ScoringConfigError represents a requirement the scorer does not know how to evaluate.
// It signals drift between the extractor output and the scorer tables.
type ScoringConfigError struct {
	Index   int
	Field   string
	Value   string
	Message string
}

func (e *ScoringConfigError) Error() string {
	return fmt.Sprintf("scoring config error: requirement[%d].%s %q: %s", e.Index, e.Field, e.Value, e.Message)
}
