package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDistributedLimiter(t *testing.T) (*DistributedLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewDistributedLimiter(client, "test"), mr
}

func TestDistributedLimiter_Allow(t *testing.T) {
	limiter, _ := newTestDistributedLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted", i+1)
	}

	allowed, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestDistributedLimiter_ZeroMaxRejects(t *testing.T) {
	limiter, _ := newTestDistributedLimiter(t)

	allowed, err := limiter.Allow(context.Background(), "key", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestDistributedLimiter_WindowExpiry(t *testing.T) {
	limiter, mr := newTestDistributedLimiter(t)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "key", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "key", 1, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Second)

	allowed, err = limiter.Allow(ctx, "key", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedLimiter_Remaining(t *testing.T) {
	limiter, _ := newTestDistributedLimiter(t)
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "key", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = limiter.Allow(ctx, "key", 5, time.Minute)
	require.NoError(t, err)

	remaining, err = limiter.Remaining(ctx, "key", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestDistributedLimiter_Reset(t *testing.T) {
	limiter, _ := newTestDistributedLimiter(t)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "key", 1, time.Minute)
	require.NoError(t, err)

	allowed, err := limiter.Allow(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "key"))

	allowed, err = limiter.Allow(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedLimiter_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewDistributedLimiter(client, "test")

	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "key", 1, time.Minute)
	assert.Error(t, err)
	assert.True(t, allowed, "redis outage must not block traffic")
}
