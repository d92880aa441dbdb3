package ranking

import (
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// Scorer is the FitScorer stage. It is pure and safe for concurrent use.
type Scorer struct {
	threshold int
	now       func() time.Time
}

// Option configures a Scorer
type Option func(*Scorer)

// WithThreshold overrides the fit threshold
func WithThreshold(threshold int) Option {
	return func(s *Scorer) { s.threshold = threshold }
}

// WithClock sets the time source used to measure current roles
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a Scorer with the default threshold
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{threshold: DefaultFitThreshold, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the fit threshold in use
func (s *Scorer) Threshold() int {
	return s.threshold
}

// Score matches every requirement against the candidate data and computes the weighted fit.
// Requirements without candidate data to compare against are unmatched and still count toward
// the total possible weight.
func (s *Scorer) Score(
	requirements []types.JobRequirement,
	_ []string,
	experiencesByRole map[types.RoleKey][]types.CandidateExperience,
	education []types.Education,
	roles []types.Role,
) (*types.FitAssessment, error) {
	if err := checkRequirements(requirements); err != nil {
		return nil, err
	}

	assessment := &types.FitAssessment{
		MatchedRequirements:   []types.MatchResult{},
		UnmatchedRequirements: []types.MatchResult{},
		CriticalGaps:          []types.JobRequirement{},
		AbsoluteGaps:          []types.JobRequirement{},
	}

	now := s.now()
	earned, possible := 0.0, 0.0
	for _, req := range requirements {
		result := s.match(req, experiencesByRole, education, roles, now)

		weight := importanceWeights[req.Importance]
		possible += weight
		earned += weight * contribution(result)

		if result.Matched() {
			assessment.MatchedRequirements = append(assessment.MatchedRequirements, result)
			continue
		}
		assessment.UnmatchedRequirements = append(assessment.UnmatchedRequirements, result)
		switch req.Importance {
		case types.ImportanceAbsolute:
			assessment.AbsoluteGaps = append(assessment.AbsoluteGaps, req)
		case types.ImportanceCritical:
			assessment.CriticalGaps = append(assessment.CriticalGaps, req)
		}
	}

	score := normalizeScore(earned, possible)
	if len(assessment.AbsoluteGaps) > 0 && score > absoluteGapCap {
		score = absoluteGapCap
	}

	assessment.OverallScore = score
	assessment.FitLevel = FitLevelFor(score)
	assessment.IsFit = DecideFit(score, len(assessment.AbsoluteGaps), s.threshold)
	return assessment, nil
}

func (s *Scorer) match(
	req types.JobRequirement,
	experiencesByRole map[types.RoleKey][]types.CandidateExperience,
	education []types.Education,
	roles []types.Role,
	now time.Time,
) types.MatchResult {
	switch req.Category {
	case types.CategoryEducationDegree:
		return matchEducationDegree(req, education)
	case types.CategoryEducationField:
		return matchEducationField(req, education)
	case types.CategoryYearsExperience:
		return matchYearsExperience(req, roles, now)
	default:
		return matchFreeText(req, experiencesByRole, roles)
	}
}

// checkRequirements rejects categories and importance levels the scorer has no table entry for
func checkRequirements(requirements []types.JobRequirement) error {
	for i, req := range requirements {
		if !req.Category.Valid() {
			return &ScoringConfigError{Index: i, Field: "category", Value: string(req.Category), Message: "unknown category"}
		}
		if !req.Importance.Valid() {
			return &ScoringConfigError{Index: i, Field: "importance", Value: string(req.Importance), Message: "unknown importance"}
		}
	}
	return nil
}
