package audit

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory event sink with a bounded capacity.
// Intended for tests and for serving recent events to forensic endpoints;
// durable storage belongs to the file or database sinks.
type MemoryStore struct {
	mu       sync.RWMutex
	events   []*Event
	capacity int
}

// NewMemoryStore creates a memory store keeping at most capacity events.
// A capacity of 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

// Log appends an event, evicting the oldest entry when at capacity.
func (s *MemoryStore) Log(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if s.capacity > 0 && len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Events returns a copy of all stored events, oldest first.
func (s *MemoryStore) Events() []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Event, len(s.events))
	copy(result, s.events)
	return result
}

// Search returns events matching the filter, oldest first.
func (s *MemoryStore) Search(filter *SearchFilter) []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Event
	for _, e := range s.events {
		if filter == nil || filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(matched) {
				return nil
			}
			matched = matched[filter.Offset:]
		}
		if filter.Limit > 0 && len(matched) > filter.Limit {
			matched = matched[:filter.Limit]
		}
	}
	return matched
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
