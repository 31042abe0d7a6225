package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/harrier/pkg/metrics"
)

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	stats StatsProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

type healthResponse struct {
	Status  string `json:"status"`
	Started bool   `json:"started"`
}

// HandleHealth handles GET /healthz requests. The process is healthy once
// it answers; started reports whether ingestion is running.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	started, _ := h.stats.GetStats()["started"].(bool)
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Started: started})
}

// MetricsHandler serves the custom Prometheus registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
