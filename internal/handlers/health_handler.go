package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports liveness and storage reachability
type HealthHandler struct {
	ping    func(ctx context.Context) error
	version string
}

// NewHealthHandler creates a health handler. ping may be nil.
func NewHealthHandler(ping func(ctx context.Context) error, version string) *HealthHandler {
	return &HealthHandler{ping: ping, version: version}
}

// Health responds with the service status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "Storage unavailable", "Health check failed", err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"message":   "Resource Room API is running",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	})
}
