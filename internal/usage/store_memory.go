package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps usage in process memory
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Usage
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Usage)}
}

// EnsurePeriod returns usage for the user, creating it or rolling the window as needed
func (s *MemoryStore) EnsurePeriod(ctx context.Context, userID string, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(userID, now), nil
}

// Record applies the deltas, refusing to go past the analysis limit. A negative
// analyses delta releases a reservation.
func (s *MemoryStore) Record(ctx context.Context, userID string, analyses, bullets int, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ensure(userID, now)
	if analyses > 0 && u.AnalysesUsed+analyses > u.AnalysesLimit {
		return u, ErrLimitReached
	}
	u.AnalysesUsed = max(u.AnalysesUsed+analyses, 0)
	u.BulletsGenerated += max(bullets, 0)
	s.data[userID] = u
	return u, nil
}

func (s *MemoryStore) ensure(userID string, now time.Time) Usage {
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(now)
	}
	u, _ = rollWindow(u, now)
	s.data[userID] = u
	return u
}
