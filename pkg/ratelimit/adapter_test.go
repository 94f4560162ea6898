package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter_SatisfiesContract(t *testing.T) {
	underlying := NewSlidingWindowLimiter()
	var limiter Limiter = NewLocalLimiter(underlying)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, err := limiter.Remaining(ctx, "1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// State flows through to the wrapped limiter.
	assert.Equal(t, 1, underlying.Size())
}

func TestNewLocalLimiter_NilGetsFreshState(t *testing.T) {
	limiter := NewLocalLimiter(nil)

	allowed, err := limiter.Allow(context.Background(), "key", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "key", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
