package analysiscache

import (
	"context"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/db"
)

// PostgresStore keeps entries in the analysis_cache table
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore creates a PostgresStore over database
func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

// Get returns the unexpired entry for the key
func (s *PostgresStore) Get(ctx context.Context, userID, jdHash string, now time.Time) (*Entry, error) {
	row, err := s.db.GetAnalysisCache(ctx, userID, jdHash, now)
	if err != nil || row == nil {
		return nil, err
	}
	return &Entry{
		UserID:        row.UserID,
		JDHash:        row.JDHash,
		Stage1Results: row.Stage1Results,
		CreatedAt:     row.CreatedAt,
		ExpiresAt:     row.ExpiresAt,
	}, nil
}

// Upsert stores entry, last write wins
func (s *PostgresStore) Upsert(ctx context.Context, entry *Entry) error {
	return s.db.UpsertAnalysisCache(ctx, &db.AnalysisCacheEntry{
		UserID:        entry.UserID,
		JDHash:        entry.JDHash,
		Stage1Results: entry.Stage1Results,
		CreatedAt:     entry.CreatedAt,
		ExpiresAt:     entry.ExpiresAt,
	})
}

// DeleteExpired removes entries that expired at or before now
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.db.DeleteExpiredAnalysisCache(ctx, now)
}
