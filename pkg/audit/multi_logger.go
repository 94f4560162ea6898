package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MultiLogger fans events out to multiple sinks simultaneously
type MultiLogger struct {
	loggers []Logger
	async   bool
	wg      sync.WaitGroup
	errChan chan error
	onError func(sink string, err error)
}

// NewMultiLogger creates a multi-logger that writes to all given sinks.
// Logging is asynchronous by default; the pipeline never waits on sinks.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
		async:   true,
		errChan: make(chan error, len(loggers)),
	}
}

// SetAsync sets whether logging should be asynchronous
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// SetErrorHandler installs a callback invoked on every sink write
// failure, in addition to the drained error channel. Set before the
// first Log call; async writes may invoke it concurrently.
func (m *MultiLogger) SetErrorHandler(handler func(sink string, err error)) {
	m.onError = handler
}

// Log logs an event to all configured sinks
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	if len(m.loggers) == 0 {
		return nil
	}
	if m.async {
		return m.logAsync(ctx, event)
	}
	return m.logSync(ctx, event)
}

func (m *MultiLogger) logSync(ctx context.Context, event *Event) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if m.onError != nil {
				m.onError(sinkName(logger), err)
			}
			// Continue to remaining sinks even if one fails
		}
	}
	return firstErr
}

func (m *MultiLogger) logAsync(ctx context.Context, event *Event) error {
	for _, logger := range m.loggers {
		m.wg.Add(1)
		go func(l Logger) {
			defer m.wg.Done()
			if err := l.Log(ctx, event); err != nil {
				if m.onError != nil {
					m.onError(sinkName(l), err)
				}
				select {
				case m.errChan <- err:
				default:
					// Channel full, drop error
				}
			}
		}(logger)
	}
	return nil
}

// Wait waits for all pending async writes to complete
func (m *MultiLogger) Wait() {
	m.wg.Wait()
}

// Errors drains and returns errors from async writes
func (m *MultiLogger) Errors() []error {
	var errors []error
	for {
		select {
		case err := <-m.errChan:
			errors = append(errors, err)
		default:
			return errors
		}
	}
}

// Close waits for pending writes and closes all sinks
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to close logger: %w", err)
			}
		}
	}

	close(m.errChan)
	return firstErr
}

// sinkName labels a sink by its concrete type for error reporting
func sinkName(l Logger) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", l), "*audit.")
}
