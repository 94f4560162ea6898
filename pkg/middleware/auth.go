package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/audit"
	"github.com/edupulse/platform/pkg/observability"
	"github.com/edupulse/platform/pkg/ratelimit"
)

// UserRateLimit is a per-principal request budget for a route group
type UserRateLimit struct {
	MaxRequests int
	Window      time.Duration
}

// AuthOptions declares what a protected route requires. Permissions use
// AND semantics; ResourceType triggers ownership resolution against the
// route variable named by ResourceParam.
type AuthOptions struct {
	Permissions []access.Permission

	// School scoping against the {schoolId} route variable. An absent
	// variable means the principal's own school.
	RequireSchoolScope bool
	SchoolParam        string

	// Ownership resolution; empty ResourceType skips the stage
	ResourceType  access.ResourceKind
	ResourceParam string

	// Optional authenticated rate limit keyed by principal ID
	RateLimit *UserRateLimit
}

// AuthMiddleware enforces authentication, role permissions, and resource
// ownership on individual routes. It runs after the SecurityPipeline and
// reuses the principal the pipeline resolved.
type AuthMiddleware struct {
	identity access.IdentityResolver
	resolver *access.Resolver
	limiter  ratelimit.Limiter
	auditLog audit.Logger
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates route-level authorization middleware
func NewAuthMiddleware(identity access.IdentityResolver, resolver *access.Resolver, limiter ratelimit.Limiter, auditLog audit.Logger, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if limiter == nil {
		limiter = ratelimit.NewLocalLimiter(nil)
	}
	return &AuthMiddleware{
		identity: identity,
		resolver: resolver,
		limiter:  limiter,
		auditLog: auditLog,
		logger:   logger,
		metrics:  metrics,
	}
}

// Require builds middleware enforcing the given options
func (m *AuthMiddleware) Require(opts AuthOptions) func(http.Handler) http.Handler {
	resourceParam := opts.ResourceParam
	if resourceParam == "" {
		resourceParam = "id"
	}
	schoolParam := opts.SchoolParam
	if schoolParam == "" {
		schoolParam = "schoolId"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal := access.PrincipalFrom(ctx)
			if principal == nil && m.identity != nil {
				resolved, err := m.identity.Resolve(ctx, r)
				if err != nil {
					m.logger.WithError(err).Error("identity resolution failed")
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				principal = resolved
				if principal != nil {
					ctx = access.WithPrincipal(ctx, principal)
				}
			}

			if principal == nil {
				m.emitAuthEvent(r, audit.EventTypeUnauthenticated, audit.SeverityMedium, "",
					"authentication required")
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			// Authenticated budget keyed by principal, not address, so
			// NAT'd school networks do not share one bucket.
			if opts.RateLimit != nil {
				key := "user:" + principal.ID
				admitted, err := m.limiter.Allow(ctx, key, opts.RateLimit.MaxRequests, opts.RateLimit.Window)
				if err != nil {
					m.logger.WithError(err).Warn("rate limiter unavailable")
				}
				if !admitted {
					if m.metrics != nil {
						m.metrics.RateLimitRejectionsTotal.WithLabelValues("user").Inc()
					}
					m.emitAuthEvent(r, audit.EventTypeRateLimitExceeded, audit.SeverityMedium,
						principal.ID, "rate limit exceeded")
					retryAfter := int(opts.RateLimit.Window.Seconds())
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
					writeRateLimited(w, retryAfter)
					return
				}
			}

			if err := access.Authorize(principal, opts.Permissions...); err != nil {
				m.recordAuthz(principal, "denied")
				m.emitAuthEvent(r, audit.EventTypePermissionDenied, audit.SeverityMedium,
					principal.ID, access.DenialReason(err))
				writeError(w, statusForAccessError(err), "insufficient permissions")
				return
			}
			m.recordAuthz(principal, "allowed")

			if opts.RequireSchoolScope {
				target := mux.Vars(r)[schoolParam]
				if err := access.ResolveSchoolScope(principal, target); err != nil {
					m.emitAuthEvent(r, audit.EventTypeOwnershipDenied, audit.SeverityMedium,
						principal.ID, access.DenialReason(err))
					writeError(w, statusForAccessError(err), "access denied")
					return
				}
			}

			if opts.ResourceType != "" && m.resolver != nil {
				resourceID := mux.Vars(r)[resourceParam]
				err := m.resolver.ResolveOwnership(ctx, principal, opts.ResourceType, resourceID)
				if err != nil {
					m.handleOwnershipError(w, r, principal, opts.ResourceType, resourceID, err)
					return
				}
				if m.metrics != nil {
					m.metrics.OwnershipChecksTotal.WithLabelValues(string(opts.ResourceType), "allowed").Inc()
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AuthMiddleware) handleOwnershipError(w http.ResponseWriter, r *http.Request, principal *access.Principal, kind access.ResourceKind, resourceID string, err error) {
	switch {
	case errors.Is(err, access.ErrNotFound):
		if m.metrics != nil {
			m.metrics.OwnershipChecksTotal.WithLabelValues(string(kind), "not_found").Inc()
		}
		event := audit.NewEvent(audit.EventTypeResourceNotFound, audit.SeverityLow)
		event.PrincipalID = principal.ID
		event.Method = r.Method
		event.Path = r.URL.Path
		event.Details["resource_type"] = string(kind)
		event.Details["resource_id"] = resourceID
		m.record(r.Context(), event)
		writeError(w, http.StatusNotFound, "resource not found")

	case errors.Is(err, access.ErrDenied):
		if m.metrics != nil {
			m.metrics.OwnershipChecksTotal.WithLabelValues(string(kind), "denied").Inc()
		}
		event := audit.NewEvent(audit.EventTypeOwnershipDenied, audit.SeverityMedium)
		event.PrincipalID = principal.ID
		event.Method = r.Method
		event.Path = r.URL.Path
		event.Message = access.DenialReason(err)
		event.Details["resource_type"] = string(kind)
		event.Details["resource_id"] = resourceID
		m.record(r.Context(), event)
		writeError(w, http.StatusForbidden, "access denied")

	default:
		// Store fault: fail closed
		m.logger.WithError(err).Error("ownership resolution failed")
		if m.metrics != nil {
			m.metrics.OwnershipChecksTotal.WithLabelValues(string(kind), "error").Inc()
		}
		m.emitAuthEvent(r, audit.EventTypePipelineFault, audit.SeverityHigh,
			principal.ID, "ownership resolution failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (m *AuthMiddleware) emitAuthEvent(r *http.Request, eventType audit.EventType, severity audit.Severity, principalID, message string) {
	event := audit.NewEvent(eventType, severity)
	event.Identifier = getClientIP(r)
	event.PrincipalID = principalID
	event.UserAgent = r.UserAgent()
	event.Method = r.Method
	event.Path = r.URL.Path
	event.Message = message
	m.record(r.Context(), event)
}

// record counts the event and hands it to the audit sink
func (m *AuthMiddleware) record(ctx context.Context, event *audit.Event) {
	if m.metrics != nil {
		m.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType), string(event.Severity)).Inc()
	}
	audit.Emit(ctx, m.auditLog, event)
}

func (m *AuthMiddleware) recordAuthz(principal *access.Principal, outcome string) {
	if m.metrics != nil {
		m.metrics.AuthzDecisionsTotal.WithLabelValues(string(principal.Role), outcome).Inc()
	}
}
