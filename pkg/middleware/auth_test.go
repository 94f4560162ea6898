package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/audit"
)

type authFixture struct {
	identity *access.StaticResolver
	store    *access.MemoryStore
	audit    *audit.MemoryStore
	mw       *AuthMiddleware
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := access.NewMemoryStore()
	store.PutSchool(&access.School{ID: "school-1", Active: true})
	store.PutParent(&access.Parent{ID: "p1", SchoolID: "school-1", Active: true})
	store.PutParent(&access.Parent{ID: "p2", SchoolID: "school-1", Active: true})
	store.PutStudent(&access.Student{ID: "s1", SchoolID: "school-1", ParentID: "p1", Active: true})
	store.PutStudent(&access.Student{ID: "s2", SchoolID: "school-1", ParentID: "p2", Active: true})
	store.PutDocument(&access.Document{ID: "d1", StudentID: "s1"})

	identity := access.NewStaticResolver()
	identity.Register("parent-token", &access.Principal{ID: "u-p1", Role: access.RoleParent, ParentID: "p1", Active: true})
	identity.Register("teacher-token", &access.Principal{ID: "u-t1", Role: access.RoleTeacher, SchoolID: "school-1", Active: true})
	identity.Register("admin-token", &access.Principal{ID: "u-a1", Role: access.RoleAdmin, Active: true})

	auditStore := audit.NewMemoryStore(1000)
	mw := NewAuthMiddleware(identity, access.NewResolver(store), nil, auditStore, nil, nil)

	return &authFixture{identity: identity, store: store, audit: auditStore, mw: mw}
}

// serve routes the request through a gorilla mux router so route variables
// are populated the way production wiring populates them.
func (f *authFixture) serve(t *testing.T, opts AuthOptions, pattern, url, token string) *httptest.ResponseRecorder {
	t.Helper()

	router := mux.NewRouter()
	router.Handle(pattern, f.mw.Require(opts)(okHandler()))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", url, nil)
	r.RemoteAddr = "192.0.2.10:1"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(rec, r)
	return rec
}

func TestAuth_Unauthenticated(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.serve(t, AuthOptions{
		Permissions: []access.Permission{access.PermissionViewReports},
	}, "/api/v1/reports", "/api/v1/reports", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication required", body["error"])

	events := f.audit.Search(&audit.SearchFilter{EventTypes: []audit.EventType{audit.EventTypeUnauthenticated}})
	require.Len(t, events, 1)
	assert.Equal(t, audit.SeverityMedium, events[0].Severity)
}

func TestAuth_ParentPermissionDenied(t *testing.T) {
	f := newAuthFixture(t)

	// A parent asking for a school-admin capability is denied outright.
	rec := f.serve(t, AuthOptions{
		Permissions: []access.Permission{access.PermissionManageSchoolUsers},
	}, "/api/v1/users", "/api/v1/users", "parent-token")

	assert.Equal(t, http.StatusForbidden, rec.Code)

	events := f.audit.Search(&audit.SearchFilter{EventTypes: []audit.EventType{audit.EventTypePermissionDenied}})
	require.Len(t, events, 1)
	assert.Equal(t, "u-p1", events[0].PrincipalID)
}

func TestAuth_ParentManagesOwnChildren(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.serve(t, AuthOptions{
		Permissions: []access.Permission{access.PermissionManageOwnChildren},
	}, "/api/v1/children", "/api/v1/children", "parent-token")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_OwnershipOwnChild(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewChildAnalytics},
		ResourceType: access.ResourceStudent,
	}

	rec := f.serve(t, opts, "/api/v1/students/{id}/analytics", "/api/v1/students/s1/analytics", "parent-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_OwnershipOtherChildDenied(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewChildAnalytics},
		ResourceType: access.ResourceStudent,
	}

	// s2 exists but belongs to another parent: 403, never 404.
	rec := f.serve(t, opts, "/api/v1/students/{id}/analytics", "/api/v1/students/s2/analytics", "parent-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	events := f.audit.Search(&audit.SearchFilter{EventTypes: []audit.EventType{audit.EventTypeOwnershipDenied}})
	require.Len(t, events, 1)
	assert.Equal(t, "not your child", events[0].Message)
	assert.Equal(t, "s2", events[0].Details["resource_id"])
}

func TestAuth_OwnershipNotFound(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewChildAnalytics},
		ResourceType: access.ResourceStudent,
	}

	rec := f.serve(t, opts, "/api/v1/students/{id}/analytics", "/api/v1/students/ghost/analytics", "parent-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "resource not found", body["error"])

	events := f.audit.Search(&audit.SearchFilter{EventTypes: []audit.EventType{audit.EventTypeResourceNotFound}})
	require.Len(t, events, 1)
	assert.Equal(t, audit.SeverityLow, events[0].Severity)
}

func TestAuth_TransitiveDocumentOwnership(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewReports},
		ResourceType: access.ResourceDocument,
	}

	// d1 -> s1 -> p1: the owning parent and the school's teacher both pass.
	rec := f.serve(t, opts, "/api/v1/documents/{id}", "/api/v1/documents/d1", "parent-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(t, opts, "/api/v1/documents/{id}", "/api/v1/documents/d1", "teacher-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_SchoolScope(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions:        []access.Permission{access.PermissionViewSchoolAnalytics},
		RequireSchoolScope: true,
	}

	rec := f.serve(t, opts, "/api/v1/schools/{schoolId}/analytics", "/api/v1/schools/school-1/analytics", "teacher-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(t, opts, "/api/v1/schools/{schoolId}/analytics", "/api/v1/schools/school-9/analytics", "teacher-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins cross school boundaries.
	rec = f.serve(t, opts, "/api/v1/schools/{schoolId}/analytics", "/api/v1/schools/school-9/analytics", "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_PerUserRateLimit(t *testing.T) {
	f := newAuthFixture(t)

	opts := AuthOptions{
		Permissions: []access.Permission{access.PermissionViewOwnProfile},
		RateLimit:   &UserRateLimit{MaxRequests: 2, Window: time.Minute},
	}

	var codes []int
	for i := 0; i < 4; i++ {
		rec := f.serve(t, opts, "/api/v1/profile", "/api/v1/profile", "parent-token")
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)

	// Another principal has an independent budget.
	rec := f.serve(t, opts, "/api/v1/profile", "/api/v1/profile", "teacher-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_ReusesPipelinePrincipal(t *testing.T) {
	f := newAuthFixture(t)

	// No Authorization header: the principal arrives via context, as it
	// does when the pipeline resolved identity already.
	router := mux.NewRouter()
	router.Handle("/api/v1/profile", f.mw.Require(AuthOptions{
		Permissions: []access.Permission{access.PermissionViewOwnProfile},
	})(okHandler()))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/profile", nil)
	r.RemoteAddr = "192.0.2.10:1"
	principal := &access.Principal{ID: "u-ctx", Role: access.RoleStudent, Active: true}
	r = r.WithContext(access.WithPrincipal(r.Context(), principal))
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_StoreFaultFailsClosed(t *testing.T) {
	identity := access.NewStaticResolver()
	identity.Register("tok", &access.Principal{ID: "u1", Role: access.RoleAdmin, Active: true})

	mw := NewAuthMiddleware(identity, access.NewResolver(faultyStore{}), nil, nil, nil, nil)

	router := mux.NewRouter()
	router.Handle("/api/v1/students/{id}", mw.Require(AuthOptions{
		ResourceType: access.ResourceStudent,
	})(okHandler()))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/students/s1", nil)
	r.Header.Set("Authorization", "Bearer tok")
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type faultyStore struct{}

func (faultyStore) GetStudent(ctx context.Context, id string) (*access.Student, error) {
	return nil, context.DeadlineExceeded
}
func (faultyStore) GetParent(ctx context.Context, id string) (*access.Parent, error) {
	return nil, context.DeadlineExceeded
}
func (faultyStore) GetDocument(ctx context.Context, id string) (*access.Document, error) {
	return nil, context.DeadlineExceeded
}
func (faultyStore) GetReport(ctx context.Context, id string) (*access.Report, error) {
	return nil, context.DeadlineExceeded
}
func (faultyStore) GetSchool(ctx context.Context, id string) (*access.School, error) {
	return nil, context.DeadlineExceeded
}
