package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
}

var (
	equivalentExperiencePattern = regexp.MustCompile(`(?i)[,;]?\s*\(?\s*or\s+(an?\s+)?(equivalent|comparable)\s+(practical\s+|professional\s+|work\s+|industry\s+)?(experience|combination of education and experience)\s*\)?`)
	equivalentOnlyPattern       = regexp.MustCompile(`(?i)^(or\s+)?(an?\s+)?(equivalent|comparable)\s+(practical\s+|professional\s+|work\s+|industry\s+)?experience\.?$`)
	yearsPattern                = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:-\s*\d+\s*)?(?:years?|yrs?)`)
	skillLeadInPattern          = regexp.MustCompile(`(?i)^(strong\s+|solid\s+|hands-on\s+|deep\s+)?(experience|proficiency|expertise|familiarity|knowledge|skills?)\s+(with|in|of|using)\s+`)
	listSeparatorPattern        = regexp.MustCompile(`\s*,\s*(?:and\s+)?|\s+and\s+|\s*&\s*`)
)

// maxSplitPartWords bounds how long a list item may be for a compound requirement to be split
const maxSplitPartWords = 3

// NormalizeSkillName maps known variants to their canonical spelling and trims whitespace
func NormalizeSkillName(skillName string) string {
	normalized := strings.TrimSpace(skillName)
	if canonical, ok := skillNormalizations[strings.ToLower(normalized)]; ok {
		return canonical
	}
	return normalized
}

// postProcess enforces the requirement invariants locally, whatever the model returned
func postProcess(result *types.Stage1Result) {
	result.JobTitle = strings.TrimSpace(result.JobTitle)
	result.CompanySummary = strings.TrimSpace(result.CompanySummary)
	result.JobRequirements = NormalizeRequirements(result.JobRequirements)
	result.AllKeywords = NormalizeKeywords(result.AllKeywords)
}

// NormalizeRequirements cleans model-produced requirements: it drops "or equivalent experience"
// alternatives for education, splits compound skill requirements, fills structured fields
// from the text and removes duplicates, keeping the highest importance.
func NormalizeRequirements(reqs []types.JobRequirement) []types.JobRequirement {
	normalized := make([]types.JobRequirement, 0, len(reqs))
	seen := make(map[string]int)

	add := func(req types.JobRequirement) {
		key := string(req.Category) + "|" + strings.ToLower(req.Requirement)
		if idx, exists := seen[key]; exists {
			if req.Importance.Rank() > normalized[idx].Importance.Rank() {
				normalized[idx].Importance = req.Importance
			}
			return
		}
		seen[key] = len(normalized)
		normalized = append(normalized, req)
	}

	for _, req := range reqs {
		req = normalizeFields(req)
		if req.Requirement == "" {
			continue
		}
		if isEquivalentExperienceAlternative(req) {
			continue
		}
		for _, part := range splitCompound(req) {
			add(part)
		}
	}

	return normalized
}

func normalizeFields(req types.JobRequirement) types.JobRequirement {
	req.Requirement = strings.TrimSpace(req.Requirement)
	req.SpecificRole = strings.TrimSpace(req.SpecificRole)
	req.RequiredField = strings.TrimSpace(req.RequiredField)
	req.Importance = types.Importance(strings.ToLower(strings.TrimSpace(string(req.Importance))))
	req.Category = types.Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(req.Category))), " ", "_"))

	switch req.Category {
	case types.CategoryEducationDegree, types.CategoryEducationField:
		req.Requirement = strings.TrimSpace(equivalentExperiencePattern.ReplaceAllString(req.Requirement, ""))
		if req.Category == types.CategoryEducationDegree {
			req.MinimumDegreeLevel = normalizeDegree(req)
		}
	case types.CategoryYearsExperience:
		if req.MinimumYears == nil {
			if m := yearsPattern.FindStringSubmatch(req.Requirement); m != nil {
				if years, err := strconv.ParseFloat(m[1], 64); err == nil {
					req.MinimumYears = &years
				}
			}
		}
	}
	return req
}

// normalizeDegree maps the requested degree onto the hierarchy, reading it from the text when absent
func normalizeDegree(req types.JobRequirement) *types.DegreeLevel {
	if req.MinimumDegreeLevel != nil {
		level := types.ParseDegreeLevel(string(*req.MinimumDegreeLevel))
		if level != types.DegreeOther {
			return &level
		}
	}
	level := types.ParseDegreeLevel(req.Requirement)
	if level == types.DegreeOther && req.MinimumDegreeLevel == nil {
		return nil
	}
	return &level
}

// isEquivalentExperienceAlternative reports whether req only restates the "or equivalent experience"
// pathway of an education requirement
func isEquivalentExperienceAlternative(req types.JobRequirement) bool {
	if req.Category == types.CategoryEducationDegree || req.Category == types.CategoryEducationField {
		return false
	}
	return equivalentOnlyPattern.MatchString(req.Requirement)
}

// splitCompound splits "Experience with SQL, Python and Spark" into one requirement per item.
// Only skill requirements whose items are short are split; "or" alternatives are left intact.
func splitCompound(req types.JobRequirement) []types.JobRequirement {
	if req.Category != types.CategoryTechnicalSkill {
		return []types.JobRequirement{req}
	}

	body := skillLeadInPattern.ReplaceAllString(req.Requirement, "")
	if strings.Contains(strings.ToLower(body), " or ") {
		return []types.JobRequirement{req}
	}

	parts := listSeparatorPattern.Split(body, -1)
	if len(parts) < 2 {
		return []types.JobRequirement{req}
	}
	for _, part := range parts {
		words := len(strings.Fields(part))
		if words == 0 || words > maxSplitPartWords {
			return []types.JobRequirement{req}
		}
	}

	split := make([]types.JobRequirement, 0, len(parts))
	for _, part := range parts {
		item := req
		item.Requirement = NormalizeSkillName(strings.TrimSuffix(strings.TrimSpace(part), "."))
		split = append(split, item)
	}
	return split
}

// NormalizeKeywords trims, canonicalizes and de-duplicates keywords case-insensitively, keeping order
func NormalizeKeywords(keywords []string) []string {
	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]bool)
	for _, keyword := range keywords {
		keyword = NormalizeSkillName(keyword)
		lower := strings.ToLower(keyword)
		if keyword == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		normalized = append(normalized, keyword)
	}
	return normalized
}
