//nolint:revive // types is a standard Go package name pattern
package types

// MatchType classifies how a requirement was matched against candidate data
type MatchType string

// Match types, strongest first
const (
	MatchExact   MatchType = "exact"
	MatchSynonym MatchType = "synonym"
	MatchRelated MatchType = "related"
	MatchNone    MatchType = "none"
)

// EvidenceStrength grades the evidence behind a match
type EvidenceStrength string

// Evidence strengths
const (
	EvidenceStrong   EvidenceStrength = "strong"
	EvidenceModerate EvidenceStrength = "moderate"
	EvidenceWeak     EvidenceStrength = "weak"
)

// MatchResult is the per-requirement outcome of fit scoring
type MatchResult struct {
	Requirement         JobRequirement   `json:"requirement"`
	MatchedExperienceID string           `json:"matchedExperienceId,omitempty"`
	MatchType           MatchType        `json:"matchType"`
	EvidenceStrength    EvidenceStrength `json:"evidenceStrength"`
	Evidence            string           `json:"evidence,omitempty"`
}

// Matched reports whether the requirement is satisfied
func (m MatchResult) Matched() bool {
	return m.MatchType != "" && m.MatchType != MatchNone
}

// FitLevel is a coarse label for the overall score
type FitLevel string

// Fit levels
const (
	FitExcellent FitLevel = "excellent"
	FitStrong    FitLevel = "strong"
	FitGood      FitLevel = "good"
	FitFair      FitLevel = "fair"
	FitWeak      FitLevel = "weak"
)

// FitAssessment is the output of fit scoring
type FitAssessment struct {
	OverallScore          int              `json:"overallScore"`
	FitLevel              FitLevel         `json:"fitLevel"`
	IsFit                 bool             `json:"isFit"`
	MatchedRequirements   []MatchResult    `json:"matchedRequirements"`
	UnmatchedRequirements []MatchResult    `json:"unmatchedRequirements"`
	CriticalGaps          []JobRequirement `json:"criticalGaps"`
	AbsoluteGaps          []JobRequirement `json:"absoluteGaps"`
}
