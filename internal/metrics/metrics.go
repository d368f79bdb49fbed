// Package metrics holds the Prometheus collectors for refreshes and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "jobportal"

// Refresh outcomes.
const (
	ResultInstalled = "installed"
	ResultBusy      = "busy"
	ResultFailed    = "failed"
)

type Metrics struct {
	RefreshTotal      *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	CategoryFailures  *prometheus.CounterVec
	SnapshotRecords   prometheus.Gauge
	SnapshotTimestamp prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on reg. A nil reg uses a private registry,
// which keeps tests from colliding on the global one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		RefreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Refresh attempts by result.",
		}, []string{"result"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Wall time of refreshes that ran.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		CategoryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "refresh",
			Name:      "category_failures_total",
			Help:      "Category searches that failed and were skipped.",
		}, []string{"category"}),
		SnapshotRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "snapshot",
			Name:      "records",
			Help:      "Records in the installed snapshot.",
		}),
		SnapshotTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "snapshot",
			Name:      "updated_timestamp_seconds",
			Help:      "Unix time the current snapshot was installed.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
