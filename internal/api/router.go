package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Olafs-World/agent-chatroom/internal/api/middleware"
	"github.com/Olafs-World/agent-chatroom/internal/handlers"
	"github.com/Olafs-World/agent-chatroom/internal/web"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, auth *middleware.RoomAuth) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins (agents call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Room-Password"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(h.NotFound)

	// Public routes (no room password required)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Everything else is gated on the room password
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePassword)

		r.Get("/", web.Index)
		r.Post("/messages", h.PostMessage)
		r.Get("/messages", h.ListMessages)
		r.Get("/messages/stream", h.StreamMessages)
		r.Get("/messages/poll", h.PollMessages)
	})

	return r
}
