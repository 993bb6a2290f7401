package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signup_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RegistryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_registry_operations_total",
			Help: "Total number of registry operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	RegistryParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signup_registry_participants",
			Help: "Current number of participants per activity",
		},
		[]string{"activity"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signup_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	SideEffectsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_side_effects_failed_total",
			Help: "Total number of failed audit writes and notifications",
		},
		[]string{"kind"},
	)
)
