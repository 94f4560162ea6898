package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedLimiter implements rate limiting backed by Redis, so limits
// are shared across instances. It satisfies the same admit/reject contract
// as SlidingWindowLimiter but counts in fixed expiring windows, which is
// the usual trade-off for a shared store.
type DistributedLimiter struct {
	redis  *redis.Client
	prefix string
}

// NewDistributedLimiter creates a Redis-backed limiter
func NewDistributedLimiter(redisClient *redis.Client, prefix string) *DistributedLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedLimiter{redis: redisClient, prefix: prefix}
}

// Allow checks whether a request is admitted. On Redis errors it fails
// open (admits) and returns the error so callers can record it.
func (l *DistributedLimiter) Allow(ctx context.Context, identifier string, maxRequests int, window time.Duration) (bool, error) {
	if maxRequests <= 0 {
		return false, nil
	}

	key := fmt.Sprintf("%s:%s", l.prefix, identifier)

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(maxRequests), nil
}

// Remaining returns the number of requests left in the current window.
// The window parameter is unused; expiry is governed by the TTL that
// Allow set on the key.
func (l *DistributedLimiter) Remaining(ctx context.Context, identifier string, maxRequests int, window time.Duration) (int, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, identifier)

	count, err := l.redis.Get(ctx, key).Int()
	if err == redis.Nil {
		return maxRequests, nil
	} else if err != nil {
		return 0, err
	}

	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TTL returns the time until the identifier's window resets
func (l *DistributedLimiter) TTL(ctx context.Context, identifier string) (time.Duration, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, identifier)
	return l.redis.TTL(ctx, key).Result()
}

// Reset clears the limit for an identifier (for tests or admin tooling)
func (l *DistributedLimiter) Reset(ctx context.Context, identifier string) error {
	key := fmt.Sprintf("%s:%s", l.prefix, identifier)
	return l.redis.Del(ctx, key).Err()
}

// HealthCheck verifies Redis connectivity
func (l *DistributedLimiter) HealthCheck(ctx context.Context) error {
	return l.redis.Ping(ctx).Err()
}
