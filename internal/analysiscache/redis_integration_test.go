//go:build integration

package analysiscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set TEST_REDIS_ADDR (e.g. localhost:6379) to run these tests.

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestIntegration_RedisStore(t *testing.T) {
	client := getTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	store := NewRedisStore(client, "test:"+uuid.NewString())
	cache := New(store, WithTTL(time.Minute))

	cache.Put(ctx, "user-1", "Senior Go Engineer", sampleResult())

	got := cache.Get(ctx, "user-1", " senior go engineer ")
	require.NotNil(t, got)
	assert.Equal(t, "Backend Engineer", got.JobTitle)

	ttl, err := client.TTL(ctx, store.key("user-1", HashJobDescription("Senior Go Engineer"))).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
