// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsTotal       *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	activeWorkers        prometheus.Gauge

	once sync.Once
)

// Init initializes the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		snapshotsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policyscrape_snapshots_total",
				Help: "Total pipeline outcomes, labeled by terminal state.",
			},
			[]string{"outcome"},
		)
		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "policyscrape_fetch_duration_seconds",
				Help:    "Renderer fetch latency, labeled by content type.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"content_type"},
		)
		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "policyscrape_active_workers",
				Help: "Batch workers currently running a pipeline.",
			},
		)
	})
}

// ObserveSnapshot counts one terminal pipeline outcome.
func ObserveSnapshot(outcome string) {
	if snapshotsTotal == nil {
		return
	}
	snapshotsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchDuration records one renderer fetch.
func ObserveFetchDuration(contentType string, d time.Duration) {
	if fetchDurationSeconds == nil {
		return
	}
	fetchDurationSeconds.WithLabelValues(contentType).Observe(d.Seconds())
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if activeWorkers != nil {
		activeWorkers.Inc()
	}
}

// WorkerFinished decrements the active worker gauge.
func WorkerFinished() {
	if activeWorkers != nil {
		activeWorkers.Dec()
	}
}
