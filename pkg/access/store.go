package access

import (
	"context"
	"sync"
)

// Minimal entity records: the ownership resolver only needs the owning
// school, the owning parent, and the active flag. The full entities live
// in the application's persistence layer.

// Student is a student record as seen by the resolver
type Student struct {
	ID       string
	SchoolID string
	ParentID string
	Active   bool
}

// Parent is a parent record as seen by the resolver
type Parent struct {
	ID       string
	SchoolID string
	Active   bool
}

// Document is an uploaded document; ownership flows through its student
type Document struct {
	ID        string
	StudentID string
}

// Report is a generated report; ownership flows through its student
type Report struct {
	ID        string
	StudentID string
}

// School is a school record
type School struct {
	ID     string
	Active bool
}

// EntityStore provides the point lookups the ownership resolver needs.
// Implementations return ErrNotFound for unknown ids. Read-only from this
// subsystem's perspective.
type EntityStore interface {
	GetStudent(ctx context.Context, id string) (*Student, error)
	GetParent(ctx context.Context, id string) (*Parent, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetReport(ctx context.Context, id string) (*Report, error)
	GetSchool(ctx context.Context, id string) (*School, error)
}

// MemoryStore is an in-memory EntityStore for tests and local development
type MemoryStore struct {
	mu        sync.RWMutex
	students  map[string]*Student
	parents   map[string]*Parent
	documents map[string]*Document
	reports   map[string]*Report
	schools   map[string]*School
}

// NewMemoryStore creates an empty in-memory entity store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:  make(map[string]*Student),
		parents:   make(map[string]*Parent),
		documents: make(map[string]*Document),
		reports:   make(map[string]*Report),
		schools:   make(map[string]*School),
	}
}

// PutStudent stores a student record
func (s *MemoryStore) PutStudent(student *Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[student.ID] = student
}

// PutParent stores a parent record
func (s *MemoryStore) PutParent(parent *Parent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[parent.ID] = parent
}

// PutDocument stores a document record
func (s *MemoryStore) PutDocument(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// PutReport stores a report record
func (s *MemoryStore) PutReport(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
}

// PutSchool stores a school record
func (s *MemoryStore) PutSchool(school *School) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools[school.ID] = school
}

func (s *MemoryStore) GetStudent(ctx context.Context, id string) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetParent(ctx context.Context, id string) (*Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if parent, ok := s.parents[id]; ok {
		return parent, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.documents[id]; ok {
		return doc, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetReport(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if report, ok := s.reports[id]; ok {
		return report, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetSchool(ctx context.Context, id string) (*School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if school, ok := s.schools[id]; ok {
		return school, nil
	}
	return nil, ErrNotFound
}
