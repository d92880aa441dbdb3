// Package types provides type definitions for structured data used throughout the job-fit pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Importance is the ordinal priority of a job requirement
type Importance string

// Importance levels, highest first
const (
	ImportanceAbsolute Importance = "absolute"
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// Valid reports whether the importance is one of the five known levels
func (i Importance) Valid() bool {
	switch i {
	case ImportanceAbsolute, ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	default:
		return false
	}
}

// Rank orders importance levels from low (1) to absolute (5). Unknown levels rank 0.
func (i Importance) Rank() int {
	switch i {
	case ImportanceAbsolute:
		return 5
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// Category classifies what kind of evidence a requirement needs
type Category string

// Requirement categories
const (
	CategoryEducationDegree Category = "education_degree"
	CategoryEducationField  Category = "education_field"
	CategoryYearsExperience Category = "years_experience"
	CategoryRoleTitle       Category = "role_title"
	CategoryTechnicalSkill  Category = "technical_skill"
	CategorySoftSkill       Category = "soft_skill"
	CategoryDomainKnowledge Category = "domain_knowledge"
)

// Valid reports whether the category is known to the scorer
func (c Category) Valid() bool {
	switch c {
	case CategoryEducationDegree, CategoryEducationField, CategoryYearsExperience, CategoryRoleTitle,
		CategoryTechnicalSkill, CategorySoftSkill, CategoryDomainKnowledge:
		return true
	default:
		return false
	}
}

// DegreeLevel is a position in the fixed degree hierarchy
type DegreeLevel string

// Degree levels, lowest first
const (
	DegreeOther     DegreeLevel = "Other"
	DegreeDiploma   DegreeLevel = "Diploma"
	DegreeAssociate DegreeLevel = "Associate"
	DegreeBachelor  DegreeLevel = "Bachelor's"
	DegreeMaster    DegreeLevel = "Master's"
	DegreePhD       DegreeLevel = "PhD"
)

var degreeRanks = map[DegreeLevel]int{
	DegreeOther:     0,
	DegreeDiploma:   1,
	DegreeAssociate: 2,
	DegreeBachelor:  3,
	DegreeMaster:    4,
	DegreePhD:       5,
}

// Rank returns the ordinal rank of the degree level. Unknown levels rank as Other.
func (d DegreeLevel) Rank() int {
	return degreeRanks[ParseDegreeLevel(string(d))]
}

// degreeAbbreviations maps the leading token of an abbreviated degree ("MSc", "B.Eng", "BA/BS")
var degreeAbbreviations = map[string]DegreeLevel{
	"phd": DegreePhD, "dphil": DegreePhD, "edd": DegreePhD, "dba": DegreePhD,
	"ms": DegreeMaster, "msc": DegreeMaster, "ma": DegreeMaster, "meng": DegreeMaster,
	"mba": DegreeMaster, "mphil": DegreeMaster, "mfa": DegreeMaster, "mpa": DegreeMaster,
	"mph": DegreeMaster, "mres": DegreeMaster, "mtech": DegreeMaster, "mcs": DegreeMaster,
	"bs": DegreeBachelor, "bsc": DegreeBachelor, "ba": DegreeBachelor, "beng": DegreeBachelor,
	"bba": DegreeBachelor, "bfa": DegreeBachelor, "btech": DegreeBachelor, "bcom": DegreeBachelor,
	"bse": DegreeBachelor, "bsba": DegreeBachelor, "ab": DegreeBachelor,
	"aa": DegreeAssociate, "as": DegreeAssociate, "aas": DegreeAssociate, "aat": DegreeAssociate,
	"ged": DegreeDiploma,
}

// ParseDegreeLevel maps free-text degree names ("B.S.", "MSc Computer Science", "Ph.D.") onto the hierarchy
func ParseDegreeLevel(raw string) DegreeLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(".", "", "’", "'").Replace(s)
	if s == "" {
		return DegreeOther
	}

	switch {
	case strings.Contains(s, "phd") || strings.Contains(s, "doctor"):
		return DegreePhD
	case strings.Contains(s, "master"):
		return DegreeMaster
	case strings.Contains(s, "bachelor") || strings.Contains(s, "undergraduate"):
		return DegreeBachelor
	case strings.Contains(s, "associate"):
		return DegreeAssociate
	case strings.Contains(s, "diploma") || strings.Contains(s, "high school"):
		return DegreeDiploma
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '(' || r == ')' || r == '-'
	})
	if len(tokens) == 0 {
		return DegreeOther
	}
	if level, ok := degreeAbbreviations[tokens[0]]; ok {
		return level
	}
	return DegreeOther
}

// JobRequirement is one atomic requirement extracted from a job description
type JobRequirement struct {
	Requirement        string       `json:"requirement"`
	Importance         Importance   `json:"importance"`
	Category           Category     `json:"category"`
	MinimumYears       *float64     `json:"minimumYears,omitempty"`
	SpecificRole       string       `json:"specificRole,omitempty"`
	MinimumDegreeLevel *DegreeLevel `json:"minimumDegreeLevel,omitempty"`
	RequiredField      string       `json:"requiredField,omitempty"`
}

// Flexible reports whether the requirement text carries an "or related"/"or similar" qualifier
func (r JobRequirement) Flexible() bool {
	text := strings.ToLower(r.Requirement + " " + r.SpecificRole + " " + r.RequiredField)
	for _, q := range []string{"or related", "or similar", "or equivalent role", "or comparable"} {
		if strings.Contains(text, q) {
			return true
		}
	}
	return false
}

// Stage1Result is the output of requirement extraction, and the unit stored in the analysis cache
type Stage1Result struct {
	JobRequirements []JobRequirement `json:"jobRequirements"`
	AllKeywords     []string         `json:"allKeywords"`
	JobTitle        string           `json:"jobTitle"`
	CompanySummary  string           `json:"companySummary"`
}
