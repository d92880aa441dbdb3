package usage

import (
	"context"
	"time"
)

// Store persists usage counters. Record applies the deltas atomically, refuses to raise
// analyses past the limit and floors counters at zero.
type Store interface {
	EnsurePeriod(ctx context.Context, userID string, now time.Time) (Usage, error)
	Record(ctx context.Context, userID string, analyses, bullets int, now time.Time) (Usage, error)
}

// Service manages usage data via an underlying store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return NewServiceWithStore(NewMemoryStore())
}

// NewServiceWithStore constructs a Service backed by store.
func NewServiceWithStore(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the service clock
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns the current usage for a user, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, userID string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, userID, s.now())
}

// Reserve takes one analysis from the user's window, returning ErrLimitReached when none
// are left. The check and the increment happen under the store's lock, so concurrent
// requests cannot both take the last analysis.
func (s *Service) Reserve(ctx context.Context, userID string) (Usage, error) {
	return s.store.Record(ctx, userID, 1, 0, s.now())
}

// Release returns an analysis taken by Reserve for a run that did not complete.
func (s *Service) Release(ctx context.Context, userID string) (Usage, error) {
	return s.store.Record(ctx, userID, -1, 0, s.now())
}

// Record adds completed analyses and generated bullets to the user's counters.
func (s *Service) Record(ctx context.Context, userID string, analyses, bullets int) (Usage, error) {
	return s.store.Record(ctx, userID, analyses, bullets, s.now())
}
