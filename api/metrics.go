package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkverdict_scans_started_total",
		Help: "Number of scans accepted by the API.",
	})
	scansCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkverdict_scans_completed_total",
		Help: "Number of finished scans by verdict label.",
	}, []string{"label"})
	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkverdict_scan_duration_seconds",
		Help:    "Wall-clock duration of full scans.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)
