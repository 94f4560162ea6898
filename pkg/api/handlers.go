package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/audit"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	principal := access.PrincipalFrom(r.Context())
	respondJSON(w, http.StatusOK, principal)
}

func (s *Server) getStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.store.GetStudent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        student.ID,
		"school_id": student.SchoolID,
		"active":    student.Active,
	})
}

func (s *Server) getStudentAnalytics(w http.ResponseWriter, r *http.Request) {
	// Analytics computation lives in a separate service; this endpoint
	// demonstrates the authorization surface in front of it.
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":   mux.Vars(r)["id"],
		"generated_at": time.Now().UTC(),
		"assessments":  []interface{}{},
	})
}

func (s *Server) getStudentResults(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"student_id": mux.Vars(r)["id"],
		"results":    []interface{}{},
	})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":         doc.ID,
		"student_id": doc.StudentID,
	})
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "student_id and name are required")
		return
	}

	// The uploader must own the target student.
	principal := access.PrincipalFrom(r.Context())
	if s.resolver != nil {
		if err := s.resolver.ResolveOwnership(r.Context(), principal, access.ResourceStudent, req.StudentID); err != nil {
			s.storeError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         uuid.NewString(),
		"student_id": req.StudentID,
		"name":       req.Name,
	})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":         report.ID,
		"student_id": report.StudentID,
	})
}

func (s *Server) getSchoolAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"school_id":    mux.Vars(r)["schoolId"],
		"generated_at": time.Now().UTC(),
	})
}

func (s *Server) listSchoolUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"school_id": mux.Vars(r)["schoolId"],
		"users":     []interface{}{},
	})
}

// searchAuditEvents queries the in-memory audit ring. Filters: event_type
// (repeatable), severity, since (RFC3339), principal_id, limit.
func (s *Server) searchAuditEvents(w http.ResponseWriter, r *http.Request) {
	if s.auditStore == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"events": []interface{}{}})
		return
	}

	filter := &audit.SearchFilter{}
	q := r.URL.Query()

	for _, t := range q["event_type"] {
		filter.EventTypes = append(filter.EventTypes, audit.EventType(t))
	}
	if sev := q.Get("severity"); sev != "" {
		severity := audit.Severity(sev)
		filter.Severity = &severity
	}
	if since := q.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		filter.StartTime = &ts
	}
	if pid := q.Get("principal_id"); pid != "" {
		filter.PrincipalID = pid
	}

	filter.Limit = 100
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = parsed
	}

	events := s.auditStore.Search(filter)
	if events == nil {
		events = []*audit.Event{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, access.ErrDenied):
		respondError(w, http.StatusForbidden, "access denied")
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
