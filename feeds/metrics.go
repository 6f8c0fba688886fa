package feeds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aicaster_feed_aggregation_duration_seconds",
		Help:    "Time spent building the aggregated feed",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // Start at 50ms, double each bucket, 10 buckets
	})

	channelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aicaster_feed_channel_failures_total",
		Help: "Channel fetches that failed during aggregation",
	}, []string{"channel"})

	castsServed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aicaster_feed_casts",
		Help:    "Number of casts in each aggregated feed",
		Buckets: prometheus.LinearBuckets(0, 25, 10),
	})
)
