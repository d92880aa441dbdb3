package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/jackc/pgx/v5"
)

// AnalysisCacheEntry is a stored Stage-1 result
type AnalysisCacheEntry struct {
	UserID        string             `json:"userId"`
	JDHash        string             `json:"jdHash"`
	Stage1Results types.Stage1Result `json:"stage1Results"`
	CreatedAt     time.Time          `json:"createdAt"`
	ExpiresAt     time.Time          `json:"expiresAt"`
}

// GetAnalysisCache retrieves an unexpired cache entry. Returns nil, nil on a miss.
func (db *DB) GetAnalysisCache(ctx context.Context, userID, jdHash string, now time.Time) (*AnalysisCacheEntry, error) {
	var entry AnalysisCacheEntry
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, jd_hash, stage1_results, created_at, expires_at
		 FROM analysis_cache
		 WHERE user_id = $1 AND jd_hash = $2 AND expires_at > $3`,
		userID, jdHash, now,
	).Scan(&entry.UserID, &entry.JDHash, &raw, &entry.CreatedAt, &entry.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis cache: %w", err)
	}

	if err := json.Unmarshal(raw, &entry.Stage1Results); err != nil {
		return nil, fmt.Errorf("failed to decode analysis cache: %w", err)
	}
	return &entry, nil
}

// UpsertAnalysisCache stores an entry, replacing any existing row for the same key
func (db *DB) UpsertAnalysisCache(ctx context.Context, entry *AnalysisCacheEntry) error {
	jsonBytes, err := json.Marshal(entry.Stage1Results)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis cache: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO analysis_cache (user_id, jd_hash, stage1_results, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, jd_hash) DO UPDATE
		 SET stage1_results = EXCLUDED.stage1_results,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		entry.UserID, entry.JDHash, jsonBytes, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis cache: %w", err)
	}
	return nil
}

// DeleteExpiredAnalysisCache removes entries that expired at or before now
func (db *DB) DeleteExpiredAnalysisCache(ctx context.Context, now time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM analysis_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired analysis cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
