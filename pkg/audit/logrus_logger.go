package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusLogger mirrors security events into the application log stream.
// Useful alongside a durable sink so operators see denials in real time.
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger creates a logrus-backed event sink
func NewLogrusLogger(log *logrus.Logger) *LogrusLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogrusLogger{log: log}
}

// Log writes the event as a structured log entry, leveled by severity
func (l *LogrusLogger) Log(ctx context.Context, event *Event) error {
	entry := l.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"severity":   event.Severity,
		"identifier": event.Identifier,
		"method":     event.Method,
		"path":       event.Path,
	})
	if event.PrincipalID != "" {
		entry = entry.WithField("principal_id", event.PrincipalID)
	}
	if len(event.Details) > 0 {
		entry = entry.WithField("details", event.Details)
	}

	switch event.Severity {
	case SeverityHigh:
		entry.Error(event.Message)
	case SeverityMedium:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}
	return nil
}

// Close is a no-op; the underlying logger is shared application state.
func (l *LogrusLogger) Close() error { return nil }
