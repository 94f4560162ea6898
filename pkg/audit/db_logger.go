package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DBLogger writes security events to a PostgreSQL table
type DBLogger struct {
	db    *sql.DB
	table string
}

// NewDBLogger creates a database-backed event sink. The table is created
// on first use if it does not exist.
func NewDBLogger(db *sql.DB, table string) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if table == "" {
		table = "security_events"
	}

	logger := &DBLogger{db: db, table: table}

	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure %s table: %w", table, err)
	}
	return logger, nil
}

func (l *DBLogger) ensureTable() error {
	table := pq.QuoteIdentifier(l.table)
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		event_type VARCHAR(100) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		identifier VARCHAR(255),
		principal_id VARCHAR(100),
		user_agent TEXT,
		method VARCHAR(10),
		path TEXT,
		message TEXT,
		details JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_security_events_timestamp ON %s(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_security_events_event_type ON %s(event_type);
	CREATE INDEX IF NOT EXISTS idx_security_events_severity ON %s(severity);
	CREATE INDEX IF NOT EXISTS idx_security_events_identifier ON %s(identifier);
	`, table, table, table, table, table)

	_, err := l.db.Exec(query)
	return err
}

// Log inserts an event row
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	var detailsJSON []byte
	var err error

	if event.Details != nil {
		detailsJSON, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, timestamp, event_type, severity,
			identifier, principal_id, user_agent,
			method, path, message, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, pq.QuoteIdentifier(l.table))

	_, err = l.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.EventType, event.Severity,
		nullableString(event.Identifier), nullableString(event.PrincipalID), nullableString(event.UserAgent),
		nullableString(event.Method), nullableString(event.Path), nullableString(event.Message),
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

// Close releases the underlying database handle. The handle is shared
// application state, so Close does not close it.
func (l *DBLogger) Close() error { return nil }

// CountSince returns the number of events at or above the given severity
// recorded since the cutoff. Used by forensic reporting.
func (l *DBLogger) CountSince(ctx context.Context, severity Severity, since time.Time) (int64, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE severity = $1 AND timestamp >= $2`,
		pq.QuoteIdentifier(l.table),
	)

	var count int64
	err := l.db.QueryRowContext(ctx, query, severity, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}
	return count, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
