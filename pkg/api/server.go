package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/audit"
	"github.com/edupulse/platform/pkg/middleware"
)

// Server is the HTTP API surface behind the security pipeline. Every
// route is wrapped by the pipeline; protected routes additionally declare
// their permission and ownership requirements.
type Server struct {
	router     *mux.Router
	handler    http.Handler
	pipeline   *middleware.SecurityPipeline
	authz      *middleware.AuthMiddleware
	store      access.EntityStore
	resolver   *access.Resolver
	auditStore *audit.MemoryStore
}

// NewServer creates the API server and configures all routes
func NewServer(pipeline *middleware.SecurityPipeline, authz *middleware.AuthMiddleware, store access.EntityStore, resolver *access.Resolver, auditStore *audit.MemoryStore) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		pipeline:   pipeline,
		authz:      authz,
		store:      store,
		resolver:   resolver,
		auditStore: auditStore,
	}
	s.setupRoutes()
	// The pipeline wraps the whole router, not per-route middleware, so
	// unmatched paths (including traversal attempts) are still scanned.
	s.handler = pipeline.Handler(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Own-profile routes: any authenticated, active account
	s.protect("/api/v1/profile", s.getProfile, middleware.AuthOptions{
		Permissions: []access.Permission{access.PermissionViewOwnProfile},
	}).Methods("GET")

	// Student resources, ownership-scoped
	s.protect("/api/v1/students/{id}", s.getStudent, middleware.AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewReports},
		ResourceType: access.ResourceStudent,
	}).Methods("GET")
	s.protect("/api/v1/students/{id}/analytics", s.getStudentAnalytics, middleware.AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewChildAnalytics},
		ResourceType: access.ResourceStudent,
	}).Methods("GET")
	s.protect("/api/v1/students/{id}/results", s.getStudentResults, middleware.AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewOwnResults},
		ResourceType: access.ResourceStudent,
	}).Methods("GET")

	// Documents and reports resolve ownership through their student
	s.protect("/api/v1/documents/{id}", s.getDocument, middleware.AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewReports},
		ResourceType: access.ResourceDocument,
	}).Methods("GET")
	s.protect("/api/v1/documents", s.uploadDocument, middleware.AuthOptions{
		Permissions: []access.Permission{access.PermissionUploadDocuments},
		RateLimit:   &middleware.UserRateLimit{MaxRequests: 20, Window: time.Minute},
	}).Methods("POST")
	s.protect("/api/v1/reports/{id}", s.getReport, middleware.AuthOptions{
		Permissions:  []access.Permission{access.PermissionViewReports},
		ResourceType: access.ResourceReport,
	}).Methods("GET")

	// School-scoped routes
	s.protect("/api/v1/schools/{schoolId}/analytics", s.getSchoolAnalytics, middleware.AuthOptions{
		Permissions:        []access.Permission{access.PermissionViewSchoolAnalytics},
		RequireSchoolScope: true,
	}).Methods("GET")
	s.protect("/api/v1/schools/{schoolId}/users", s.listSchoolUsers, middleware.AuthOptions{
		Permissions:        []access.Permission{access.PermissionManageSchoolUsers},
		RequireSchoolScope: true,
	}).Methods("GET")

	// Admin audit trail search
	s.protect("/api/v1/admin/audit-events", s.searchAuditEvents, middleware.AuthOptions{
		Permissions: []access.Permission{access.PermissionViewAuditLog},
	}).Methods("GET")
}

func (s *Server) protect(path string, handler http.HandlerFunc, opts middleware.AuthOptions) *mux.Route {
	return s.router.Handle(path, s.authz.Require(opts)(handler))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for additional registrations
func (s *Server) Router() *mux.Router {
	return s.router
}
