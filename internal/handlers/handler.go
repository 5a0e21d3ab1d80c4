package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Olafs-World/agent-chatroom/internal/room"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	room   *room.Room
	logger zerolog.Logger

	pollTimeout time.Duration
	keepAlive   time.Duration
}

// NewHandler creates a new Handler bound to the room.
func NewHandler(rm *room.Room, logger zerolog.Logger, pollTimeout, keepAlive time.Duration) *Handler {
	return &Handler{
		room:        rm,
		logger:      logger,
		pollTimeout: pollTimeout,
		keepAlive:   keepAlive,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Error(w, http.StatusNotFound, "not found")
}
