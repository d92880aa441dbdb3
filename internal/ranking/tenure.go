package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

const daysPerYear = 365.25

type interval struct {
	start, end time.Time
}

// matchYearsExperience sums overlap-free tenure over the roles that match req.SpecificRole,
// or over all roles when no specific role is named
func matchYearsExperience(req types.JobRequirement, roles []types.Role, now time.Time) types.MatchResult {
	result := types.MatchResult{
		Requirement:      req,
		MatchType:        types.MatchNone,
		EvidenceStrength: types.EvidenceWeak,
	}

	matchType := types.MatchExact
	var counted []types.Role
	for _, role := range roles {
		if role.StartDate.IsZero() {
			continue
		}
		if req.SpecificRole == "" {
			counted = append(counted, role)
			continue
		}
		if m := roleMatch(role.Title, req.SpecificRole, req.Flexible()); m != types.MatchNone {
			counted = append(counted, role)
			if matchTypeScores[m] < matchTypeScores[matchType] {
				matchType = m
			}
		}
	}
	if len(counted) == 0 {
		return result
	}

	years := tenureYears(counted, now)
	if req.MinimumYears != nil && years < *req.MinimumYears {
		result.Evidence = fmt.Sprintf("%.1f years", years)
		return result
	}

	labels := make([]string, 0, len(counted))
	for _, role := range counted {
		labels = append(labels, role.Label())
	}
	result.MatchType = matchType
	result.EvidenceStrength = types.EvidenceStrong
	result.Evidence = fmt.Sprintf("%.1f years across %s", years, strings.Join(labels, "; "))
	return result
}

// roleMatch classifies how a held role title matches the role a requirement asks for
func roleMatch(title, specificRole string, flexible bool) types.MatchType {
	wanted := strings.ToLower(coreTerm(specificRole))
	titleTokens := tokenize(title)
	wantedTokens := significantTokens(wanted)
	if len(titleTokens) == 0 || len(wantedTokens) == 0 {
		return types.MatchNone
	}

	if containsPhrase(titleTokens, wanted) {
		return types.MatchExact
	}
	for _, syn := range synonymsOf(wanted) {
		if containsPhrase(titleTokens, syn) {
			return types.MatchSynonym
		}
	}

	overlap := tokenOverlap(titleTokens, wantedTokens)
	if overlap == 1 {
		return types.MatchSynonym
	}
	if flexible && overlap >= relatedOverlap {
		return types.MatchRelated
	}
	return types.MatchNone
}

// tenureYears merges overlapping role intervals and returns the covered span in years.
// Current roles run until now.
func tenureYears(roles []types.Role, now time.Time) float64 {
	intervals := make([]interval, 0, len(roles))
	for _, role := range roles {
		end := now
		if role.EndDate != nil {
			end = *role.EndDate
		}
		if end.After(role.StartDate) {
			intervals = append(intervals, interval{start: role.StartDate, end: end})
		}
	}
	if len(intervals) == 0 {
		return 0
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start.Before(intervals[j].start) })

	var total time.Duration
	current := intervals[0]
	for _, next := range intervals[1:] {
		if !next.start.After(current.end) {
			if next.end.After(current.end) {
				current.end = next.end
			}
			continue
		}
		total += current.end.Sub(current.start)
		current = next
	}
	total += current.end.Sub(current.start)

	return total.Hours() / 24 / daysPerYear
}
