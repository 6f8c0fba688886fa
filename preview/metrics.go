package preview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aicaster_link_previews_total",
		Help: "Link previews by outcome (image, ok, fallback)",
	}, []string{"outcome"})

	previewDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aicaster_link_preview_duration_seconds",
		Help:    "Time spent fetching and parsing link previews",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // Start at 50ms, double each bucket, 8 buckets
	})
)
