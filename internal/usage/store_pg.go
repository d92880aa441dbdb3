package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore keeps usage in the usage table. Rows are locked with FOR UPDATE
// so concurrent requests for one user serialize.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// EnsurePeriod returns usage for the user, creating it or rolling the window as needed
func (s *PGStore) EnsurePeriod(ctx context.Context, userID string, now time.Time) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() { _ = tx.Rollback() }()

	u, err := s.lockAndEnsure(ctx, tx, userID, now)
	if err != nil {
		return Usage{}, err
	}
	if err := tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// Record applies the deltas, refusing to go past the analysis limit. A negative
// analyses delta releases a reservation.
func (s *PGStore) Record(ctx context.Context, userID string, analyses, bullets int, now time.Time) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() { _ = tx.Rollback() }()

	u, err := s.lockAndEnsure(ctx, tx, userID, now)
	if err != nil {
		return Usage{}, err
	}
	if analyses > 0 && u.AnalysesUsed+analyses > u.AnalysesLimit {
		return u, ErrLimitReached
	}
	u.AnalysesUsed = max(u.AnalysesUsed+analyses, 0)
	u.BulletsGenerated += max(bullets, 0)

	if _, err := tx.ExecContext(ctx, `
UPDATE usage SET analyses_used = $1, bullets_generated = $2, updated_at = NOW() WHERE user_id = $3`,
		u.AnalysesUsed, u.BulletsGenerated, userID); err != nil {
		return Usage{}, err
	}
	if err := tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *PGStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT plan, analyses_limit, analyses_used, bullets_generated, resets_at FROM usage WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&u.Plan, &u.AnalysesLimit, &u.AnalysesUsed, &u.BulletsGenerated, &u.ResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u = defaultUsage(now)
			if _, err := tx.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, analyses_limit, analyses_used, bullets_generated, resets_at) VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, u.Plan, u.AnalysesLimit, u.AnalysesUsed, u.BulletsGenerated, u.ResetsAt); err != nil {
				return Usage{}, err
			}
			return u, nil
		}
		return Usage{}, err
	}

	u, rolled := rollWindow(u, now)
	if rolled {
		if _, err := tx.ExecContext(ctx, `
UPDATE usage SET analyses_used = 0, bullets_generated = 0, resets_at = $1 WHERE user_id = $2`, u.ResetsAt, userID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
