package ranking

import (
	"strings"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// relatedOverlap is the share of requirement tokens that must appear for a related match
const relatedOverlap = 0.5

// experienceField is one searchable part of a STAR record with the evidence strength it carries
type experienceField struct {
	name     string
	text     string
	strength types.EvidenceStrength
}

// fieldsOf lists the searchable fields of an experience. Actions and results are what the
// candidate did and achieved, so they are strong evidence; context is weak.
func fieldsOf(exp types.CandidateExperience) []experienceField {
	return []experienceField{
		{"action", exp.Action, types.EvidenceStrong},
		{"result", exp.Result, types.EvidenceStrong},
		{"title", exp.Title, types.EvidenceModerate},
		{"task", exp.Task, types.EvidenceModerate},
		{"tags", strings.Join(exp.Tags, " , "), types.EvidenceModerate},
		{"situation", exp.Situation, types.EvidenceWeak},
	}
}

// classifyText decides how phrase matches a single piece of candidate text
func classifyText(textTokens []string, phrase string, phraseTokens []string) types.MatchType {
	if len(textTokens) == 0 || phrase == "" {
		return types.MatchNone
	}
	if containsPhrase(textTokens, phrase) {
		return types.MatchExact
	}
	for _, syn := range synonymsOf(phrase) {
		if containsPhrase(textTokens, syn) {
			return types.MatchSynonym
		}
	}
	for _, rel := range relatedOf(phrase) {
		if containsPhrase(textTokens, rel) {
			return types.MatchRelated
		}
	}
	if len(phraseTokens) > 1 && tokenOverlap(textTokens, phraseTokens) >= relatedOverlap {
		return types.MatchRelated
	}
	return types.MatchNone
}

// matchFreeText finds the best supporting experience for a skill, knowledge or role requirement.
// Experiences are visited in role-key order so ties resolve deterministically to the first hit.
func matchFreeText(req types.JobRequirement, experiencesByRole map[types.RoleKey][]types.CandidateExperience, roles []types.Role) types.MatchResult {
	best := types.MatchResult{
		Requirement:      req,
		MatchType:        types.MatchNone,
		EvidenceStrength: types.EvidenceWeak,
	}
	bestScore := 0.0

	consider := func(candidate types.MatchResult) {
		if score := contribution(candidate); score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	phrase := strings.ToLower(coreTerm(req.Requirement))
	if req.Category == types.CategoryRoleTitle && req.SpecificRole != "" {
		phrase = strings.ToLower(coreTerm(req.SpecificRole))
	}
	phraseTokens := significantTokens(phrase)

	// Held role titles are direct evidence for role requirements
	if req.Category == types.CategoryRoleTitle {
		for _, role := range roles {
			matchType := classifyText(tokenize(role.Title), phrase, phraseTokens)
			consider(types.MatchResult{
				Requirement:      req,
				MatchType:        matchType,
				EvidenceStrength: types.EvidenceStrong,
				Evidence:         "role: " + role.Label(),
			})
		}
	}

	for _, key := range types.SortedRoleKeys(experiencesByRole) {
		for _, exp := range experiencesByRole[key] {
			for _, field := range fieldsOf(exp) {
				matchType := classifyText(tokenize(field.text), phrase, phraseTokens)
				if matchType == types.MatchNone {
					continue
				}
				consider(types.MatchResult{
					Requirement:         req,
					MatchedExperienceID: exp.ID,
					MatchType:           matchType,
					EvidenceStrength:    field.strength,
					Evidence:            field.name + ": " + exp.Title,
				})
			}
		}
	}

	return best
}
