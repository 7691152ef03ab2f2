package handlers

import (
	"net/http"
	"time"

	"github.com/lumenmart/api/internal/platform/httpx"
)

// HealthHandlers serves the liveness probe.
type HealthHandlers struct {
	started time.Time
}

// NewHealthHandlers constructs health endpoints.
func NewHealthHandlers() *HealthHandlers {
	return &HealthHandlers{started: time.Now().UTC()}
}

// Healthz reports process liveness and uptime.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
