package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the security pipeline
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineDecisionsTotal *prometheus.CounterVec
	PipelineDuration       *prometheus.HistogramVec
	PanicRecoveriesTotal   prometheus.Counter

	// Stage metrics
	ThreatDetectionsTotal       *prometheus.CounterVec
	RateLimitRejectionsTotal    *prometheus.CounterVec
	RateLimitTrackedIdentifiers prometheus.Gauge
	CORSRejectionsTotal         prometheus.Counter
	AuthzDecisionsTotal         *prometheus.CounterVec
	OwnershipChecksTotal        *prometheus.CounterVec

	// Audit metrics
	AuditEventsTotal     *prometheus.CounterVec
	AuditSinkErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edupulse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		PipelineDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_pipeline_decisions_total",
				Help: "Pipeline decisions by terminating stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edupulse_pipeline_duration_seconds",
				Help:    "Time spent in the security pipeline before the handler runs",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"outcome"},
		),
		PanicRecoveriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edupulse_pipeline_panic_recoveries_total",
				Help: "Panics recovered inside the security pipeline",
			},
		),

		ThreatDetectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_threat_detections_total",
				Help: "Requests rejected by the threat scanner, by signature",
			},
			[]string{"signature"},
		),
		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_rate_limit_rejections_total",
				Help: "Requests rejected by the rate limiter, by identifier scope",
			},
			[]string{"scope"},
		),
		RateLimitTrackedIdentifiers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edupulse_rate_limit_tracked_identifiers",
				Help: "Identifiers currently tracked by the sliding-window limiter",
			},
		),
		CORSRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edupulse_cors_rejections_total",
				Help: "Cross-origin requests with no matching allow-list entry",
			},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_authz_decisions_total",
				Help: "Role permission checks by role and outcome",
			},
			[]string{"role", "outcome"},
		),
		OwnershipChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_ownership_checks_total",
				Help: "Resource ownership resolutions by resource type and outcome",
			},
			[]string{"resource_type", "outcome"},
		),

		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_audit_events_total",
				Help: "Audit events emitted, by event type and severity",
			},
			[]string{"event_type", "severity"},
		),
		AuditSinkErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupulse_audit_sink_errors_total",
				Help: "Audit sink write failures, by sink",
			},
			[]string{"sink"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PipelineDecisionsTotal,
		m.PipelineDuration,
		m.PanicRecoveriesTotal,
		m.ThreatDetectionsTotal,
		m.RateLimitRejectionsTotal,
		m.RateLimitTrackedIdentifiers,
		m.CORSRejectionsTotal,
		m.AuthzDecisionsTotal,
		m.OwnershipChecksTotal,
		m.AuditEventsTotal,
		m.AuditSinkErrorsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the /metrics endpoint handler for the registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
