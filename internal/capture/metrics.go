package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apiextract",
		Subsystem: "capture",
		Name:      "sessions_total",
		Help:      "Capture sessions by outcome (success, error, timeout).",
	}, []string{"outcome"})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "apiextract",
		Subsystem: "capture",
		Name:      "duration_seconds",
		Help:      "Wall time of a capture session, including navigation and idle wait.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	sessionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "apiextract",
		Subsystem: "capture",
		Name:      "in_flight",
		Help:      "Capture sessions currently holding a browser.",
	})

	urlsCaptured = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "apiextract",
		Subsystem: "capture",
		Name:      "urls",
		Help:      "Number of URLs in a successful capture result.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)
