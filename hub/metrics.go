package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aicaster_hub_requests_total",
		Help: "Requests sent to the Farcaster hub by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	hubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aicaster_hub_request_duration_seconds",
		Help:    "Latency of Farcaster hub requests",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // Start at 10ms, double each bucket, 10 buckets
	}, []string{"endpoint"})

	profileFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aicaster_profile_fallbacks_total",
		Help: "Profile lookups answered with the synthesized fallback profile",
	})
)
