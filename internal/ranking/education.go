// Package ranking scores a candidate's experience, education and tenure against extracted job requirements.
package ranking

import (
	"strings"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// relatedFields maps a field of study to fields that usually satisfy an "or related field" requirement
var relatedFields = map[string][]string{
	"computer science":       {"software engineering", "computer engineering", "information technology", "information systems", "cs"},
	"software engineering":   {"computer science", "computer engineering", "cs"},
	"computer engineering":   {"computer science", "electrical engineering", "software engineering"},
	"data science":           {"statistics", "mathematics", "computer science", "machine learning"},
	"statistics":             {"mathematics", "data science", "economics"},
	"mathematics":            {"statistics", "physics", "computer science", "applied mathematics"},
	"electrical engineering": {"computer engineering", "electronics"},
	"business":               {"business administration", "management", "economics", "finance", "marketing"},
	"economics":              {"finance", "statistics", "business"},
	"design":                 {"human-computer interaction", "graphic design", "interaction design"},
	"engineering":            {"computer science", "mechanical engineering", "electrical engineering", "physics"},
}

// matchEducationDegree compares the candidate's highest degree with the required level.
// A candidate without education records is unmatched.
func matchEducationDegree(req types.JobRequirement, education []types.Education) types.MatchResult {
	result := types.MatchResult{
		Requirement:      req,
		MatchType:        types.MatchNone,
		EvidenceStrength: types.EvidenceWeak,
	}
	if len(education) == 0 {
		return result
	}

	var required types.DegreeLevel
	if req.MinimumDegreeLevel != nil {
		required = types.ParseDegreeLevel(string(*req.MinimumDegreeLevel))
	} else {
		required = types.ParseDegreeLevel(req.Requirement)
	}

	highest := education[0]
	for _, edu := range education[1:] {
		if edu.Level().Rank() > highest.Level().Rank() {
			highest = edu
		}
	}

	if highest.Level().Rank() >= required.Rank() {
		result.MatchType = types.MatchExact
		result.EvidenceStrength = types.EvidenceStrong
		result.Evidence = educationLabel(highest)
	}
	return result
}

// matchEducationField checks whether any degree is in the required field or a related one
func matchEducationField(req types.JobRequirement, education []types.Education) types.MatchResult {
	result := types.MatchResult{
		Requirement:      req,
		MatchType:        types.MatchNone,
		EvidenceStrength: types.EvidenceWeak,
	}

	required := req.RequiredField
	if required == "" {
		required = coreTerm(req.Requirement)
	}
	required = strings.ToLower(coreTerm(required))
	if required == "" {
		return result
	}

	for _, edu := range education {
		field := strings.ToLower(strings.TrimSpace(edu.Field))
		if field == "" {
			continue
		}
		switch {
		case field == required || strings.Contains(field, required) || strings.Contains(required, field):
			return types.MatchResult{
				Requirement:      req,
				MatchType:        types.MatchExact,
				EvidenceStrength: types.EvidenceStrong,
				Evidence:         educationLabel(edu),
			}
		case isRelatedField(field, required) && result.MatchType == types.MatchNone:
			result.MatchType = types.MatchRelated
			result.EvidenceStrength = types.EvidenceModerate
			if req.Flexible() {
				// "or related field" accepts the related degree as full evidence
				result.EvidenceStrength = types.EvidenceStrong
			}
			result.Evidence = educationLabel(edu)
		}
	}
	return result
}

func isRelatedField(field, required string) bool {
	for key, related := range relatedFields {
		if !strings.Contains(required, key) {
			continue
		}
		for _, r := range related {
			if strings.Contains(field, r) || strings.Contains(r, field) {
				return true
			}
		}
	}
	return false
}

func educationLabel(edu types.Education) string {
	label := edu.Degree
	if edu.Field != "" {
		label += " in " + edu.Field
	}
	if edu.School != "" {
		label += ", " + edu.School
	}
	return strings.TrimSpace(label)
}
