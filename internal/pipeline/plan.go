package pipeline

import (
	"fmt"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

const maxGapSteps = 3

// buildActionPlan derives next steps from the assessment and bullet outcome
func buildActionPlan(assessment *types.FitAssessment, bullets *types.BulletOutput, bulletErr string) types.ActionPlan {
	plan := types.ActionPlan{
		ReadyForBulletGeneration: assessment.IsFit,
		NextSteps:                []string{},
	}

	switch {
	case !assessment.IsFit && len(assessment.AbsoluteGaps) > 0:
		plan.Summary = fmt.Sprintf("Not a fit yet: %d must-have requirement(s) are not covered by your experience.", len(assessment.AbsoluteGaps))
		for _, gap := range assessment.AbsoluteGaps {
			plan.NextSteps = append(plan.NextSteps, fmt.Sprintf("Add experience that demonstrates: %s", gap.Requirement))
		}
	case !assessment.IsFit:
		plan.Summary = fmt.Sprintf("Score %d is below the fit threshold; strengthen the gaps below before applying.", assessment.OverallScore)
	case bulletErr != "":
		plan.Summary = "You are a fit, but bullet generation failed. Retry to generate tailored bullets."
		plan.NextSteps = append(plan.NextSteps, "Retry the analysis to generate resume bullets")
	default:
		plan.ReadyForApplication = true
		plan.Summary = fmt.Sprintf("Strong match (%s fit, score %d). Your tailored bullets are ready.", assessment.FitLevel, assessment.OverallScore)
		if bullets != nil && len(bullets.KeywordsNotUsed) > 0 {
			plan.NextSteps = append(plan.NextSteps, fmt.Sprintf("Consider working these keywords into your resume: %s", joinLimited(bullets.KeywordsNotUsed, 5)))
		}
		if bullets != nil && countExceeding(bullets) > 0 {
			plan.NextSteps = append(plan.NextSteps, fmt.Sprintf("Shorten %d bullet(s) that exceed one resume line", countExceeding(bullets)))
		}
	}

	for i, gap := range assessment.CriticalGaps {
		if i == maxGapSteps {
			break
		}
		plan.NextSteps = append(plan.NextSteps, fmt.Sprintf("Add a STAR experience showing: %s", gap.Requirement))
	}
	return plan
}

func countExceeding(bullets *types.BulletOutput) int {
	n := 0
	for _, role := range bullets.BulletsByRole {
		for _, b := range role {
			if b.ExceedsWidth {
				n++
			}
		}
	}
	return n
}

func joinLimited(items []string, limit int) string {
	out := ""
	for i, item := range items {
		if i == limit {
			out += fmt.Sprintf(" and %d more", len(items)-limit)
			break
		}
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
