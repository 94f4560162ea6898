package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/audit"
	"github.com/edupulse/platform/pkg/headers"
	"github.com/edupulse/platform/pkg/observability"
	"github.com/edupulse/platform/pkg/ratelimit"
	"github.com/edupulse/platform/pkg/threat"
)

// Stage names the pipeline stages in their fixed execution order
type Stage string

const (
	StageThreatScan      Stage = "THREAT_SCAN"
	StageRateLimit       Stage = "RATE_LIMIT"
	StageVirusScan       Stage = "VIRUS_SCAN"
	StageSecurityHeaders Stage = "SECURITY_HEADERS"
	StageCORS            Stage = "CORS"
	StageRBAC            Stage = "RBAC"
	StageOwnership       Stage = "OWNERSHIP"
)

// VirusScanner is the hook for an external content scanning service.
// A non-nil error from ScanRequest blocks the request.
type VirusScanner interface {
	ScanRequest(r *http.Request) error
}

// PipelineConfig controls which stages run and the rate-limit budget
type PipelineConfig struct {
	ThreatScanEnabled      bool
	RateLimitEnabled       bool
	VirusScanEnabled       bool
	SecurityHeadersEnabled bool
	CORSEnabled            bool

	// Per-identifier budget for the anonymous (IP-keyed) limiter
	MaxRequests int
	Window      time.Duration
}

// DefaultPipelineConfig returns the standard production configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		ThreatScanEnabled:      true,
		RateLimitEnabled:       true,
		VirusScanEnabled:       true,
		SecurityHeadersEnabled: true,
		CORSEnabled:            true,
		MaxRequests:            100,
		Window:                 time.Minute,
	}
}

// HighSecurityPipelineConfig tightens the rate budget for sensitive routes
func HighSecurityPipelineConfig() *PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.MaxRequests = 20
	return cfg
}

// MinimalPipelineConfig keeps rate limiting, security headers, and CORS
// but skips threat and virus scanning. Intended for public endpoints
// serving static or non-sensitive content.
func MinimalPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		RateLimitEnabled:       true,
		SecurityHeadersEnabled: true,
		CORSEnabled:            true,
		MaxRequests:            100,
		Window:                 time.Minute,
	}
}

// enabledStages lists the enabled stages in execution order
func (c *PipelineConfig) enabledStages() []string {
	var stages []string
	if c.ThreatScanEnabled {
		stages = append(stages, string(StageThreatScan))
	}
	if c.RateLimitEnabled {
		stages = append(stages, string(StageRateLimit))
	}
	if c.VirusScanEnabled {
		stages = append(stages, string(StageVirusScan))
	}
	if c.SecurityHeadersEnabled {
		stages = append(stages, string(StageSecurityHeaders))
	}
	if c.CORSEnabled {
		stages = append(stages, string(StageCORS))
	}
	return stages
}

// PipelineDeps bundles the collaborators the pipeline drives
type PipelineDeps struct {
	Limiter  ratelimit.Limiter
	Scanner  *threat.Scanner
	Injector *headers.Injector
	CORS     *headers.Gate
	Identity access.IdentityResolver
	Virus    VirusScanner
	AuditLog audit.Logger
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// SecurityPipeline runs every inbound request through a fixed sequence of
// security stages. The first failing stage terminates the request; later
// stages never run. A panic anywhere in the pipeline fails closed with 500.
type SecurityPipeline struct {
	config   *PipelineConfig
	limiter  ratelimit.Limiter
	scanner  *threat.Scanner
	injector *headers.Injector
	cors     *headers.Gate
	identity access.IdentityResolver
	virus    VirusScanner
	auditLog audit.Logger
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewSecurityPipeline creates a pipeline from config and dependencies.
// Missing optional deps degrade to safe defaults: nop audit sink, built-in
// signature set, default header policy.
func NewSecurityPipeline(config *PipelineConfig, deps PipelineDeps) *SecurityPipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLocalLimiter(nil)
	}
	if deps.Scanner == nil {
		deps.Scanner = threat.NewScanner(threat.DefaultSignatures()...)
	}
	if deps.Injector == nil {
		deps.Injector = headers.NewInjector(headers.DefaultInjectorConfig())
	}
	if deps.CORS == nil {
		deps.CORS = headers.NewGate(headers.DefaultGateConfig())
	}
	if deps.AuditLog == nil {
		deps.AuditLog = audit.NopLogger{}
	}
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	return &SecurityPipeline{
		config:   config,
		limiter:  deps.Limiter,
		scanner:  deps.Scanner,
		injector: deps.Injector,
		cors:     deps.CORS,
		identity: deps.Identity,
		virus:    deps.Virus,
		auditLog: deps.AuditLog,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// Limiter exposes the pipeline's limiter
func (p *SecurityPipeline) Limiter() ratelimit.Limiter {
	return p.limiter
}

// Scanner exposes the threat scanner for signature reloads
func (p *SecurityPipeline) Scanner() *threat.Scanner {
	return p.scanner
}

// Handler wraps an HTTP handler with the full security pipeline
func (p *SecurityPipeline) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := getClientIP(r)

		defer func() {
			if rec := recover(); rec != nil {
				p.logger.WithField("panic", rec).
					WithField("path", r.URL.Path).
					Error("security pipeline panic")
				if p.metrics != nil {
					p.metrics.PanicRecoveriesTotal.Inc()
				}
				p.emit(r, audit.EventTypePipelineFault, audit.SeverityHigh, clientIP,
					"pipeline fault, request blocked")
				p.recordDecision("PIPELINE", "fault", start)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		// Stage 1: threat signature scan on the request line only. The
		// body is never read here so handlers can stream it.
		if p.config.ThreatScanEnabled {
			verdict := p.scanner.Scan(r.URL.RequestURI(), r.ContentLength > 0)
			if !verdict.Clean {
				if p.metrics != nil {
					p.metrics.ThreatDetectionsTotal.WithLabelValues(verdict.Signature).Inc()
				}
				event := p.newEvent(r, audit.EventTypeThreatDetected, audit.SeverityHigh, clientIP)
				event.Message = "request matched threat signature"
				event.Details["signature"] = verdict.Signature
				p.record(r.Context(), event)
				p.recordDecision(string(StageThreatScan), "blocked", start)
				writeError(w, http.StatusBadRequest, "request blocked")
				return
			}
		}

		// Stage 2: sliding-window rate limit keyed by client address.
		// Rejected requests do not consume budget.
		if p.config.RateLimitEnabled {
			key := "ip:" + clientIP
			admitted, err := p.limiter.Allow(r.Context(), key, p.config.MaxRequests, p.config.Window)
			if err != nil {
				// A limiter backend outage fails open
				p.logger.WithError(err).Warn("rate limiter unavailable")
			}
			if !admitted {
				if p.metrics != nil {
					p.metrics.RateLimitRejectionsTotal.WithLabelValues("ip").Inc()
				}
				p.emit(r, audit.EventTypeRateLimitExceeded, audit.SeverityMedium, clientIP,
					"rate limit exceeded")
				p.recordDecision(string(StageRateLimit), "blocked", start)
				retryAfter := int(p.config.Window.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeRateLimited(w, retryAfter)
				return
			}
			if remaining, err := p.limiter.Remaining(r.Context(), key, p.config.MaxRequests, p.config.Window); err == nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.config.MaxRequests))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			}
		}

		// Stage 3: external virus scanning hook
		if p.config.VirusScanEnabled && p.virus != nil {
			if err := p.virus.ScanRequest(r); err != nil {
				event := p.newEvent(r, audit.EventTypeVirusDetected, audit.SeverityHigh, clientIP)
				event.Message = "virus scan rejected request"
				event.Details["reason"] = err.Error()
				p.record(r.Context(), event)
				p.recordDecision(string(StageVirusScan), "blocked", start)
				writeError(w, http.StatusBadRequest, "request blocked")
				return
			}
		}

		// Stage 4: security headers on every response from here on
		if p.config.SecurityHeadersEnabled {
			p.injector.Apply(w)
		}

		// Stage 5: CORS gate. A disallowed origin gets no grant headers
		// but the request itself proceeds; the browser enforces the rest.
		if p.config.CORSEnabled && r.Header.Get("Origin") != "" {
			allowed := p.cors.Apply(w, r)
			if !allowed {
				if p.metrics != nil {
					p.metrics.CORSRejectionsTotal.Inc()
				}
				event := p.newEvent(r, audit.EventTypeCORSRejected, audit.SeverityLow, clientIP)
				event.Message = "origin not in allow list"
				event.Details["origin"] = r.Header.Get("Origin")
				p.record(r.Context(), event)
			}
			if headers.IsPreflight(r) {
				p.recordDecision(string(StageCORS), "preflight", start)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		// Resolve identity once so route-level authorization can reuse it
		ctx := r.Context()
		if p.identity != nil {
			principal, err := p.identity.Resolve(ctx, r)
			if err != nil {
				p.logger.WithError(err).Error("identity resolution failed")
				p.emit(r, audit.EventTypePipelineFault, audit.SeverityHigh, clientIP,
					"identity resolution failed")
				p.recordDecision("PIPELINE", "fault", start)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if principal != nil {
				ctx = access.WithPrincipal(ctx, principal)
			}
		}

		event := p.newEvent(r, audit.EventTypeRequestAllowed, audit.SeverityLow, clientIP)
		event.Details["stages"] = p.config.enabledStages()
		if principal := access.PrincipalFrom(ctx); principal != nil {
			event.PrincipalID = principal.ID
		}
		p.record(ctx, event)
		p.recordDecision("PIPELINE", "allowed", start)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *SecurityPipeline) newEvent(r *http.Request, eventType audit.EventType, severity audit.Severity, clientIP string) *audit.Event {
	event := audit.NewEvent(eventType, severity)
	event.Identifier = clientIP
	event.UserAgent = r.UserAgent()
	event.Method = r.Method
	event.Path = r.URL.Path
	return event
}

func (p *SecurityPipeline) emit(r *http.Request, eventType audit.EventType, severity audit.Severity, clientIP, message string) {
	event := p.newEvent(r, eventType, severity, clientIP)
	event.Message = message
	p.record(r.Context(), event)
}

// record counts the event and hands it to the audit sink
func (p *SecurityPipeline) record(ctx context.Context, event *audit.Event) {
	if p.metrics != nil {
		p.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType), string(event.Severity)).Inc()
	}
	audit.Emit(ctx, p.auditLog, event)
}

func (p *SecurityPipeline) recordDecision(stage, outcome string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.PipelineDecisionsTotal.WithLabelValues(stage, outcome).Inc()
	p.metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// getClientIP extracts the client address, preferring proxy headers
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First hop is the original client
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
