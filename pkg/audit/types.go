package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the category of security event
type EventType string

const (
	// Pipeline decision events
	EventTypeThreatDetected    EventType = "threat.signature_match"
	EventTypeVirusDetected     EventType = "threat.virus_flagged"
	EventTypeRateLimitExceeded EventType = "ratelimit.exceeded"
	EventTypeCORSRejected      EventType = "cors.origin_rejected"
	EventTypeRequestAllowed    EventType = "pipeline.allowed"
	EventTypePipelineFault     EventType = "pipeline.fault"

	// Authentication/authorization events
	EventTypeUnauthenticated  EventType = "auth.unauthenticated"
	EventTypePermissionDenied EventType = "authz.permission_denied"
	EventTypeOwnershipDenied  EventType = "authz.ownership_denied"
	EventTypeResourceNotFound EventType = "authz.resource_not_found"
)

// Severity represents the risk level of an event
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event represents a single security audit record. Events are immutable
// after creation; ownership passes to the logger on Log.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`
	Severity  Severity  `json:"severity"`

	// Actor information
	Identifier  string `json:"identifier,omitempty"` // rate-limit key, typically client address
	PrincipalID string `json:"principal_id,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`

	// Request context
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`

	// Additional details
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewEvent creates an event with its identity and timestamp populated.
func NewEvent(eventType EventType, severity Severity) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Severity:  severity,
		Details:   make(map[string]interface{}),
	}
}

// ToJSON converts the event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}

// SearchFilter represents filters for querying stored events
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	EventTypes  []EventType
	Severity    *Severity
	Identifier  string
	PrincipalID string

	Limit  int
	Offset int
}

// Matches reports whether an event satisfies the filter.
func (f *SearchFilter) Matches(e *Event) bool {
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	if f.Severity != nil && e.Severity != *f.Severity {
		return false
	}
	if f.Identifier != "" && e.Identifier != f.Identifier {
		return false
	}
	if f.PrincipalID != "" && e.PrincipalID != f.PrincipalID {
		return false
	}
	if len(f.EventTypes) > 0 {
		found := false
		for _, t := range f.EventTypes {
			if e.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
