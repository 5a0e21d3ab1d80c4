package handlers

import (
	"net/http"
	"time"
)

const version = "0.1.0"

var startedAt = time.Now()

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// Health handles the health check endpoint. No auth: it reports process
// liveness only and leaks no room state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   version,
		Uptime:    time.Since(startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
