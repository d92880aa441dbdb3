// Package analysiscache stores Stage-1 extraction results keyed by user and job description content.
package analysiscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// DefaultTTL is how long a cached extraction stays valid
const DefaultTTL = 24 * time.Hour

// Entry is one cached Stage-1 result
type Entry struct {
	UserID        string             `json:"userId"`
	JDHash        string             `json:"jdHash"`
	Stage1Results types.Stage1Result `json:"stage1Results"`
	CreatedAt     time.Time          `json:"createdAt"`
	ExpiresAt     time.Time          `json:"expiresAt"`
}

// Store persists cache entries. Get returns nil, nil on a miss and must not return
// entries that expired at or before now. Upsert replaces any entry with the same key.
type Store interface {
	Get(ctx context.Context, userID, jdHash string, now time.Time) (*Entry, error)
	Upsert(ctx context.Context, entry *Entry) error
}

// HashJobDescription returns the hex SHA-256 of the trimmed, lower-cased job description
func HashJobDescription(jobDescription string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(jobDescription))))
	return hex.EncodeToString(sum[:])
}

// Option configures a Cache
type Option func(*Cache)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for absorbed store failures
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache is the AnalysisCache. Store failures never reach callers: a failed
// lookup is a miss and a failed write is logged.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Cache over store
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached Stage-1 result for the user and job description, or nil
func (c *Cache) Get(ctx context.Context, userID, jobDescription string) *types.Stage1Result {
	hash := HashJobDescription(jobDescription)
	entry, err := c.store.Get(ctx, userID, hash, c.now())
	if err != nil {
		c.logger.Warn("analysis cache lookup failed", "user_id", userID, "jd_hash", hash, "error", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	result := entry.Stage1Results
	return &result
}

// Put stores result for the user and job description, replacing any previous entry
func (c *Cache) Put(ctx context.Context, userID, jobDescription string, result *types.Stage1Result) {
	if result == nil {
		return
	}
	now := c.now()
	entry := &Entry{
		UserID:        userID,
		JDHash:        HashJobDescription(jobDescription),
		Stage1Results: *result,
		CreatedAt:     now,
		ExpiresAt:     now.Add(c.ttl),
	}
	if err := c.store.Upsert(ctx, entry); err != nil {
		c.logger.Warn("analysis cache write failed", "user_id", userID, "jd_hash", entry.JDHash, "error", err)
	}
}
