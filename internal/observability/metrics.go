// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	DatesProcessed        *prometheus.CounterVec
	OpportunitiesDetected prometheus.Counter
	FillsSimulated        prometheus.Counter
	ShotsTaken            prometheus.Counter
	PnLRowsComputed       prometheus.Counter

	// Latency metrics
	DateDuration  prometheus.Histogram
	BatchDuration prometheus.Histogram

	// Storage metrics
	StoreErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered on
// the given registry. A nil registry uses the default one.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "spread_sniper_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DatesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "dates_processed_total",
			Help:      "Total number of market dates processed by outcome",
		}, []string{"status"}),
		OpportunitiesDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "opportunities_detected_total",
			Help:      "Total number of opportunities detected",
		}),
		FillsSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fills_simulated_total",
			Help:      "Total number of fill simulations run",
		}),
		ShotsTaken: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "shots_taken_total",
			Help:      "Total number of simulated fills that cleared the shoot threshold",
		}),
		PnLRowsComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pnl_rows_computed_total",
			Help:      "Total number of latency-model P&L rows computed",
		}),

		DateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "date_duration_seconds",
			Help:      "Wall time spent processing one market date",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Wall time spent on a whole batch run",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "store_errors_total",
			Help:      "Total number of store operation failures by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
