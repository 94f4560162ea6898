package ratelimit

import (
	"context"
	"sync"
	"time"
)

// windowState owns the per-identifier timestamp sequences. A single coarse
// mutex guards the whole map: every read-modify-write of a sequence happens
// under it, including the background sweep.
type windowState struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func newWindowState() *windowState {
	return &windowState{windows: make(map[string][]time.Time)}
}

// SlidingWindowLimiter tracks request timestamps per identifier over a
// trailing window. It is an injected component, not a singleton: construct
// one at process start and pass it into the pipeline so tests and future
// distributed backends can swap it freely.
type SlidingWindowLimiter struct {
	state *windowState
}

// NewSlidingWindowLimiter creates an empty limiter
func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	return &SlidingWindowLimiter{state: newWindowState()}
}

// Allow reports whether a request from identifier is admitted given at most
// maxRequests per window. An admitted request is recorded at the current
// time; a rejected request is not counted. The filtered timestamp sequence
// is persisted on both outcomes so state stays bounded.
//
// maxRequests == 0 always rejects. The window is inclusive of now and
// exclusive of now-window.
func (l *SlidingWindowLimiter) Allow(identifier string, maxRequests int, window time.Duration) bool {
	now := time.Now()
	windowStart := now.Add(-window)

	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	seq := l.state.windows[identifier]
	kept := make([]time.Time, 0, len(seq)+1)
	for _, ts := range seq {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	admitted := false
	if len(kept) < maxRequests {
		kept = append(kept, now)
		admitted = true
	}

	l.state.windows[identifier] = kept
	return admitted
}

// Remaining returns how many further requests the identifier could make
// right now under the given limit.
func (l *SlidingWindowLimiter) Remaining(identifier string, maxRequests int, window time.Duration) int {
	windowStart := time.Now().Add(-window)

	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	count := 0
	for _, ts := range l.state.windows[identifier] {
		if ts.After(windowStart) {
			count++
		}
	}

	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Sweep removes timestamps older than maxAge and deletes identifiers whose
// entire sequence has aged out. Safe to call repeatedly: a second sweep with
// no intervening traffic leaves state unchanged.
func (l *SlidingWindowLimiter) Sweep(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	for identifier, seq := range l.state.windows {
		kept := seq[:0]
		for _, ts := range seq {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(l.state.windows, identifier)
		} else {
			l.state.windows[identifier] = kept
		}
	}
}

// StartSweep runs Sweep on a fixed interval until ctx is cancelled.
// The ticker serializes runs, so a sweep never overlaps itself.
func (l *SlidingWindowLimiter) StartSweep(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				l.Sweep(maxAge)
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// Size returns the number of tracked identifiers
func (l *SlidingWindowLimiter) Size() int {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return len(l.state.windows)
}
