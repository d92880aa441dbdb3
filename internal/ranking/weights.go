package ranking

import (
	"math"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// DefaultFitThreshold is the minimum overall score for a fit decision
const DefaultFitThreshold = 80

// absoluteGapCap bounds the overall score while any absolute requirement is unmet
const absoluteGapCap = 79

var importanceWeights = map[types.Importance]float64{
	types.ImportanceAbsolute: 3.0,
	types.ImportanceCritical: 2.5,
	types.ImportanceHigh:     2.0,
	types.ImportanceMedium:   1.0,
	types.ImportanceLow:      0.5,
}

var matchTypeScores = map[types.MatchType]float64{
	types.MatchExact:   1.0,
	types.MatchSynonym: 0.9,
	types.MatchRelated: 0.6,
	types.MatchNone:    0.0,
}

var evidenceMultipliers = map[types.EvidenceStrength]float64{
	types.EvidenceStrong:   1.0,
	types.EvidenceModerate: 0.8,
	types.EvidenceWeak:     0.5,
}

// fitLevelFloors lists the minimum score for each level, highest first
var fitLevelFloors = []struct {
	floor int
	level types.FitLevel
}{
	{90, types.FitExcellent},
	{80, types.FitStrong},
	{65, types.FitGood},
	{50, types.FitFair},
}

// contribution returns the share of a requirement's weight earned by its match
func contribution(result types.MatchResult) float64 {
	if !result.Matched() {
		return 0
	}
	return matchTypeScores[result.MatchType] * evidenceMultipliers[result.EvidenceStrength]
}

// FitLevelFor maps an overall score to a coarse fit label
func FitLevelFor(score int) types.FitLevel {
	for _, f := range fitLevelFloors {
		if score >= f.floor {
			return f.level
		}
	}
	return types.FitWeak
}

// DecideFit applies the fit gate: the score must reach the threshold and no absolute requirement may be unmet
func DecideFit(score int, absoluteGaps int, threshold int) bool {
	return score >= threshold && absoluteGaps == 0
}

// normalizeScore turns a weighted sum into a 0-100 integer score
func normalizeScore(earned, possible float64) int {
	if possible <= 0 {
		return 0
	}
	score := int(math.Round(earned / possible * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
