package analysiscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis and lets Redis expire them
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore. Keys are namespaced with prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "jobfit:analysis_cache"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get returns the unexpired entry for the key
func (s *RedisStore) Get(ctx context.Context, userID, jdHash string, now time.Time) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(userID, jdHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode analysis cache: %w", err)
	}
	if !entry.ExpiresAt.After(now) {
		return nil, nil
	}
	return &entry, nil
}

// Upsert stores entry with a Redis TTL matching its lifetime
func (s *RedisStore) Upsert(ctx context.Context, entry *Entry) error {
	ttl := entry.ExpiresAt.Sub(entry.CreatedAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis cache: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.UserID, entry.JDHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set analysis cache: %w", err)
	}
	return nil
}

func (s *RedisStore) key(userID, jdHash string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, userID, jdHash)
}
