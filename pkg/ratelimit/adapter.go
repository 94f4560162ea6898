package ratelimit

import (
	"context"
	"time"
)

// Limiter is the admit/reject contract the security middleware depends
// on. Both the in-process sliding-window limiter and the Redis-backed
// limiter satisfy it, so a deployment can move to a shared store without
// touching the pipeline.
type Limiter interface {
	// Allow reports whether the identifier may make another request.
	// Implementations backed by a remote store fail open and return the
	// error alongside the admit decision.
	Allow(ctx context.Context, identifier string, maxRequests int, window time.Duration) (bool, error)

	// Remaining reports how many further requests the identifier could
	// make right now under the given limit.
	Remaining(ctx context.Context, identifier string, maxRequests int, window time.Duration) (int, error)
}

var (
	_ Limiter = (*LocalLimiter)(nil)
	_ Limiter = (*DistributedLimiter)(nil)
)

// LocalLimiter adapts SlidingWindowLimiter to the Limiter contract. The
// in-process limiter cannot fail, so the returned error is always nil.
type LocalLimiter struct {
	*SlidingWindowLimiter
}

// NewLocalLimiter wraps an in-process sliding-window limiter. A nil
// limiter gets a fresh one.
func NewLocalLimiter(limiter *SlidingWindowLimiter) *LocalLimiter {
	if limiter == nil {
		limiter = NewSlidingWindowLimiter()
	}
	return &LocalLimiter{SlidingWindowLimiter: limiter}
}

func (l *LocalLimiter) Allow(ctx context.Context, identifier string, maxRequests int, window time.Duration) (bool, error) {
	return l.SlidingWindowLimiter.Allow(identifier, maxRequests, window), nil
}

func (l *LocalLimiter) Remaining(ctx context.Context, identifier string, maxRequests int, window time.Duration) (int, error) {
	return l.SlidingWindowLimiter.Remaining(identifier, maxRequests, window), nil
}
