// Package observability provides structured logging, Prometheus metrics,
// health probes, and OpenTelemetry tracing for the platform.
//
// Logging is JSON via stdlib slog:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("identifier", ip).Warn("rate limit exceeded")
//
// Metrics are registered against a caller-supplied Prometheus registry:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ThreatDetectionsTotal.WithLabelValues("path-traversal").Inc()
//
// Tracing is optional; InitTracing is a no-op when disabled and wires the
// global OTLP tracer provider when enabled.
package observability
