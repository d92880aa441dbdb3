package analysiscache

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	userID string
	jdHash string
}

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]Entry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]Entry)}
}

// Get returns the unexpired entry for the key
func (s *MemoryStore) Get(_ context.Context, userID, jdHash string, now time.Time) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[memoryKey{userID: userID, jdHash: jdHash}]
	s.mu.RUnlock()
	if !ok || !entry.ExpiresAt.After(now) {
		return nil, nil
	}
	return &entry, nil
}

// Upsert stores entry, last write wins
func (s *MemoryStore) Upsert(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey{userID: entry.UserID, jdHash: entry.JDHash}] = *entry
	return nil
}

// DeleteExpired removes entries that expired at or before now
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, entry := range s.entries {
		if !entry.ExpiresAt.After(now) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}
