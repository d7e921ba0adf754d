package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler wraps exporter, the handler of the OpenTelemetry
// Prometheus exporter. A nil exporter falls back to the default registry.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	if exporter == nil {
		exporter = promhttp.Handler()
	}
	return &MetricsHandler{handler: exporter}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
