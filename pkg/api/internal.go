package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edupulse/platform/pkg/observability"
)

// NewInternalRouter builds the router for the internal port: health
// probes and, when enabled, the Prometheus scrape endpoint. It is served
// separately from the API port so probes bypass the security pipeline.
func NewInternalRouter(checker *observability.HealthChecker, registry *prometheus.Registry, metricsEnabled bool) *mux.Router {
	router := mux.NewRouter()
	observability.RegisterHealthRoutes(router, checker)
	if metricsEnabled {
		router.Handle("/metrics", observability.MetricsHandler(registry)).Methods("GET")
	}
	return router
}
