package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrops/storefront-edge/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestNewLoginLimiter_Validation(t *testing.T) {
	_, err := NewLoginLimiter(nil, LoginLimiterOptions{Limit: 1, Window: time.Second})
	require.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	_, err = NewLoginLimiter(client, LoginLimiterOptions{Limit: 0, Window: time.Second})
	require.Error(t, err)

	_, err = NewLoginLimiter(client, LoginLimiterOptions{Limit: 1, Window: 0})
	require.Error(t, err)
}

func TestLoginLimiter_Allow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	client := setupTestRedis(t)
	defer client.Close()

	limiter, err := NewLoginLimiter(client, LoginLimiterOptions{Limit: 3, Window: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, allowErr := limiter.Allow(ctx, "user:203.0.113.7")
		require.NoError(t, allowErr)
		assert.True(t, ok, "attempt %d should pass", i+1)
	}

	ok, err := limiter.Allow(ctx, "user:203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok, "fourth attempt in the window must be rejected")

	other, err := limiter.Allow(ctx, "admin:203.0.113.7")
	require.NoError(t, err)
	assert.True(t, other, "keys are counted independently")

	require.NoError(t, limiter.Reset(ctx, "user:203.0.113.7"))
	ok, err = limiter.Allow(ctx, "user:203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLimiter_KeysExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	client := setupTestRedis(t)
	defer client.Close()

	limiter, err := NewLoginLimiter(client, LoginLimiterOptions{Limit: 1, Window: time.Minute, Prefix: "test:"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)

	keys, err := client.Keys(ctx, "test:k:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	ttl, err := client.PTTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestLoginLimiter_EmptyKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	limiter, err := NewLoginLimiter(client, LoginLimiterOptions{Limit: 1, Window: time.Second})
	require.NoError(t, err)

	_, err = limiter.Allow(context.Background(), "")
	require.Error(t, err)
	assert.NoError(t, limiter.Reset(context.Background(), ""))
}
