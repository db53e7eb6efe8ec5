package redis

// Package redis provides Redis-based adapters for the storefront edge.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithExpiry increments the window counter and sets its TTL on first use,
// atomically so a crash between the two commands cannot leave a key without expiry.
var incrWithExpiry = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// LoginLimiter is a fixed-window attempt counter backed by Redis.
type LoginLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// LoginLimiterOptions configures a LoginLimiter.
type LoginLimiterOptions struct {
	Limit  int
	Window time.Duration
	// Prefix namespaces keys; defaults to "ratelimit:login:".
	Prefix string
}

// NewLoginLimiter creates a Redis-backed login limiter.
func NewLoginLimiter(client redis.UniversalClient, opts LoginLimiterOptions) (*LoginLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", opts.Limit)
	}
	if opts.Window < time.Millisecond {
		return nil, fmt.Errorf("window too small: %s", opts.Window)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ratelimit:login:"
	}
	return &LoginLimiter{client: client, prefix: prefix, limit: opts.Limit, window: opts.Window}, nil
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("rate limit key cannot be empty")
	}

	n, err := incrWithExpiry.Run(ctx, l.client, []string{l.windowKey(key, time.Now())}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	return n <= int64(l.limit), nil
}

// Reset clears the current window for key.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return l.client.Del(ctx, l.windowKey(key, time.Now())).Err()
}

func (l *LoginLimiter) windowKey(key string, now time.Time) string {
	bucket := now.UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)
}
