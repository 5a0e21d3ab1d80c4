package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Olafs-World/agent-chatroom/internal/api"
	"github.com/Olafs-World/agent-chatroom/internal/api/middleware"
	"github.com/Olafs-World/agent-chatroom/internal/config"
	"github.com/Olafs-World/agent-chatroom/internal/handlers"
	"github.com/Olafs-World/agent-chatroom/internal/room"
	"github.com/Olafs-World/agent-chatroom/internal/tunnel"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Create the room: the single authoritative state for this process.
	rm := room.New(cfg.RoomPassword)

	h := handlers.NewHandler(rm, logger, cfg.PollTimeout, cfg.KeepAliveInterval)
	auth := middleware.NewRoomAuth(cfg.RoomPassword)
	router := api.NewRouter(logger, h, auth)

	publicURL := "http://localhost:" + cfg.Port

	// Optionally expose the room through a cloudflared tunnel.
	var tun *tunnel.Tunnel
	if cfg.Tunnel == "cloudflared" {
		binary, err := tunnel.Find()
		if err != nil {
			logger.Fatal().Err(err).Msg("tunnel requested but cloudflared not found")
		}
		tun, err = tunnel.Start(context.Background(), binary, cfg.Port)
		if err != nil {
			logger.Fatal().Err(err).Msg("tunnel startup failed")
		}
		publicURL = tun.URL
		logger.Info().Str("url", tun.URL).Msg("tunnel established")
	}

	// Create server. WriteTimeout stays zero: SSE connections are held open
	// indefinitely and a write deadline would sever them.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("room_id", rm.ID.String()).
			Str("url", publicURL).
			Msg("agent-chatroom is live")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	if tun != nil {
		tun.Stop()
	}

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
