package db

import (
	"context"
	"fmt"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"golang.org/x/sync/errgroup"
)

// LoadCandidate reads a user's experiences, roles and education concurrently.
// A user with no stored data yields an empty profile, not an error.
func (db *DB) LoadCandidate(ctx context.Context, userID string) (*types.CandidateProfile, error) {
	profile := &types.CandidateProfile{
		Experiences: []types.CandidateExperience{},
		Roles:       []types.Role{},
		Education:   []types.Education{},
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		experiences, err := db.ListExperiences(gCtx, userID)
		if err != nil {
			return err
		}
		profile.Experiences = experiences
		return nil
	})

	g.Go(func() error {
		roles, err := db.ListRoles(gCtx, userID)
		if err != nil {
			return err
		}
		profile.Roles = roles
		return nil
	})

	g.Go(func() error {
		education, err := db.ListEducation(gCtx, userID)
		if err != nil {
			return err
		}
		profile.Education = education
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListExperiences retrieves all STAR experiences owned by a user
func (db *DB) ListExperiences(ctx context.Context, userID string) ([]types.CandidateExperience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id::text, role_id::text, title, situation, task, action, result, tags
		 FROM experiences WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	experiences := []types.CandidateExperience{}
	for rows.Next() {
		var exp types.CandidateExperience
		if err := rows.Scan(&exp.ID, &exp.RoleID, &exp.Title, &exp.Situation, &exp.Task,
			&exp.Action, &exp.Result, &exp.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		experiences = append(experiences, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate experiences: %w", err)
	}
	return experiences, nil
}

// ListRoles retrieves a user's roles with their company names, most recent first
func (db *DB) ListRoles(ctx context.Context, userID string) ([]types.Role, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT r.id::text, r.company_id::text, c.name, r.title, r.start_date, r.end_date
		 FROM roles r
		 JOIN companies c ON c.id = r.company_id
		 WHERE r.user_id = $1
		 ORDER BY r.start_date DESC NULLS LAST, r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []types.Role{}
	for rows.Next() {
		var role types.Role
		var startDate *time.Time
		if err := rows.Scan(&role.ID, &role.CompanyID, &role.Company, &role.Title, &startDate, &role.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if startDate != nil {
			role.StartDate = *startDate
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

// ListEducation retrieves a user's education records
func (db *DB) ListEducation(ctx context.Context, userID string) ([]types.Education, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id::text, school, degree, degree_level, field
		 FROM education WHERE user_id = $1
		 ORDER BY end_date DESC NULLS LAST, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	education := []types.Education{}
	for rows.Next() {
		var edu types.Education
		var level string
		if err := rows.Scan(&edu.ID, &edu.School, &edu.Degree, &level, &edu.Field); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		edu.DegreeLevel = types.DegreeLevel(level)
		education = append(education, edu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate education: %w", err)
	}
	return education, nil
}
