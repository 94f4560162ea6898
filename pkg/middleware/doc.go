// Package middleware orchestrates the request security pipeline.
//
// SecurityPipeline wraps every route with a fixed stage order: threat
// signature scan, sliding-window rate limit, virus scan hook, security
// headers, CORS. The first failing stage terminates the request and emits
// an audit event; a panic anywhere fails closed with a 500.
//
// AuthMiddleware adds the per-route stages: authentication, role
// permission checks, school scoping, and resource ownership resolution.
// It runs inside the pipeline and reuses the principal the pipeline
// resolved, so identity is established exactly once per request.
//
// Typical wiring:
//
//	pipeline := middleware.NewSecurityPipeline(middleware.DefaultPipelineConfig(), deps)
//	authz := middleware.NewAuthMiddleware(identity, resolver, limiter, auditLog, logger, metrics)
//
//	router.Use(pipeline.Handler)
//	router.Handle("/api/v1/students/{id}",
//	    authz.Require(middleware.AuthOptions{
//	        Permissions:  []access.Permission{access.PermissionViewReports},
//	        ResourceType: access.ResourceStudent,
//	    })(handler))
package middleware
