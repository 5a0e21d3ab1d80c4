package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Room metrics
	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentchat_messages_posted_total",
			Help: "Total messages appended to the room",
		},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentchat_auth_failures_total",
			Help: "Total requests rejected for a bad room password",
		},
	)

	// Delivery metrics
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentchat_stream_clients",
			Help: "Currently connected SSE stream clients",
		},
	)

	PollWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentchat_poll_waiters",
			Help: "Long-poll requests currently parked waiting for messages",
		},
	)

	PollTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentchat_poll_timeouts_total",
			Help: "Long-poll requests that returned empty after the timeout",
		},
	)
)
