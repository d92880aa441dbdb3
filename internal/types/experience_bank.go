// Package types provides type definitions for structured data used throughout the job-fit pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"strings"
	"time"
)

// RoleKey identifies a role in per-role groupings (experiences, bullets)
type RoleKey string

// CandidateExperience is one STAR record owned by a role
type CandidateExperience struct {
	ID        string   `json:"id"`
	RoleID    string   `json:"roleId"`
	Title     string   `json:"title"`
	Situation string   `json:"situation"`
	Task      string   `json:"task"`
	Action    string   `json:"action"`
	Result    string   `json:"result"`
	Tags      []string `json:"tags"`
}

// Role is a position held at a company. EndDate nil means the role is current.
type Role struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"companyId,omitempty"`
	Company   string     `json:"company"`
	Title     string     `json:"title"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Key returns the grouping key for the role
func (r Role) Key() RoleKey {
	return RoleKey(r.ID)
}

// Label returns a human readable "Title, Company" label
func (r Role) Label() string {
	if r.Company == "" {
		return r.Title
	}
	return r.Title + ", " + r.Company
}

// Education is one education record
type Education struct {
	ID          string      `json:"id"`
	School      string      `json:"school"`
	Degree      string      `json:"degree"`
	DegreeLevel DegreeLevel `json:"degreeLevel,omitempty"`
	Field       string      `json:"field"`
}

// Level returns the explicit degree level, falling back to parsing the free-text degree
func (e Education) Level() DegreeLevel {
	if e.DegreeLevel != "" {
		return ParseDegreeLevel(string(e.DegreeLevel))
	}
	return ParseDegreeLevel(e.Degree)
}

// CandidateProfile is the read-only snapshot of a user's data used by one pipeline run
type CandidateProfile struct {
	Experiences []CandidateExperience `json:"experiences"`
	Roles       []Role                `json:"roles"`
	Education   []Education           `json:"education"`
}

// ExperiencesByRole groups experiences by owning role. Roles without experiences
// are present with an empty slice so downstream stages see every role.
func (p *CandidateProfile) ExperiencesByRole() map[RoleKey][]CandidateExperience {
	grouped := make(map[RoleKey][]CandidateExperience, len(p.Roles))
	for _, role := range p.Roles {
		grouped[role.Key()] = []CandidateExperience{}
	}
	for _, exp := range p.Experiences {
		key := RoleKey(exp.RoleID)
		grouped[key] = append(grouped[key], exp)
	}
	return grouped
}

// SortedRoleKeys returns the keys of a per-role map in a stable order
func SortedRoleKeys[V any](m map[RoleKey]V) []RoleKey {
	keys := make([]RoleKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Text concatenates the searchable fields of an experience, lowercased
func (e CandidateExperience) Text() string {
	parts := []string{e.Title, e.Situation, e.Task, e.Action, e.Result, strings.Join(e.Tags, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}
