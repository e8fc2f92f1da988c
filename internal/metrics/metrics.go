package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatx_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatx_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatx_users_registered_total",
			Help: "Total accounts registered",
		},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatx_logins_total",
			Help: "Total login attempts",
		},
		[]string{"outcome"}, // "ok" or "rejected"
	)

	// Websocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatx_ws_connections",
			Help: "Currently connected websocket clients",
		},
	)

	EnvelopesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatx_envelopes_broadcast_total",
			Help: "Total envelopes handled by the hub",
		},
		[]string{"type"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatx_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
