package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port         string
	Env          string
	RoomPassword string

	// Delivery tuning. Both are implementation choices, not part of the wire
	// contract, so they stay configurable with documented defaults.
	PollTimeout       time.Duration // long-poll park duration
	KeepAliveInterval time.Duration // SSE idle keep-alive period

	// Tunnel provider: "cloudflared" or empty for none.
	Tunnel string
}

// Load reads configuration from environment variables. In development it
// loads from a .env file if present. ROOM_PASSWORD is always required: the
// room cannot exist without its shared secret.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8765"),
		Env:               getEnv("ENV", "development"),
		RoomPassword:      os.Getenv("ROOM_PASSWORD"),
		PollTimeout:       getDuration("POLL_TIMEOUT", 25*time.Second),
		KeepAliveInterval: getDuration("KEEPALIVE_INTERVAL", 15*time.Second),
		Tunnel:            os.Getenv("TUNNEL"),
	}

	if cfg.RoomPassword == "" {
		panic("ROOM_PASSWORD is required")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare numbers are taken as seconds.
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
