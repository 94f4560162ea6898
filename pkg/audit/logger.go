package audit

import (
	"context"
)

// Logger is the interface for security audit sinks. The pipeline treats
// Log as best-effort: a logging failure must never fail the request.
type Logger interface {
	// Log records a security event
	Log(ctx context.Context, event *Event) error

	// Close closes the logger and flushes any buffered events
	Close() error
}

// NopLogger discards all events. Used when no sink is configured.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }
func (NopLogger) Close() error                                { return nil }

// Emit fires an event at a logger without propagating sink errors.
// Callers that must respond to the client regardless of audit durability
// use this instead of Log directly.
func Emit(ctx context.Context, logger Logger, event *Event) {
	if logger == nil || event == nil {
		return
	}
	_ = logger.Log(ctx, event)
}
