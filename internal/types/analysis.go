//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Stage is a step of the analysis pipeline as reported in run traces and progress events
type Stage string

// Pipeline stages
const (
	StageStart      Stage = "START"
	StageExtracting Stage = "EXTRACTING"
	StageMatching   Stage = "MATCHING"
	StageGenerating Stage = "GENERATING"
	StageSkipped    Stage = "SKIPPED"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// AnalysisRequest is the input to one pipeline run
type AnalysisRequest struct {
	UserID           string    `json:"userId" validate:"required"`
	JobDescription   string    `json:"jobDescription" validate:"required"`
	KeywordMatchType MatchMode `json:"keywordMatchType,omitempty" validate:"omitempty,oneof=exact flexible"`
}

// Normalize trims the job description and applies the default match mode
func (r *AnalysisRequest) Normalize() {
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.UserID = strings.TrimSpace(r.UserID)
	if r.KeywordMatchType == "" {
		r.KeywordMatchType = MatchModeExact
	}
}

// Validate validates the AnalysisRequest using the validator.
func (r *AnalysisRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ActionPlan summarizes what the candidate should do next
type ActionPlan struct {
	ReadyForApplication      bool     `json:"readyForApplication"`
	ReadyForBulletGeneration bool     `json:"readyForBulletGeneration"`
	Summary                  string   `json:"summary"`
	NextSteps                []string `json:"nextSteps"`
}

// AnalysisResult is the combined output of a pipeline run
type AnalysisResult struct {
	JobTitle              string           `json:"jobTitle"`
	CompanySummary        string           `json:"companySummary"`
	JobRequirements       []JobRequirement `json:"jobRequirements"`
	AllKeywords           []string         `json:"allKeywords"`
	FitAssessment         FitAssessment    `json:"fitAssessment"`
	Bullets               *BulletOutput    `json:"bullets,omitempty"`
	BulletGenerationError string           `json:"bulletGenerationError,omitempty"`
	ActionPlan            ActionPlan       `json:"actionPlan"`
	Stages                []Stage          `json:"stages"`
	FromCache             bool             `json:"fromCache"`
}
