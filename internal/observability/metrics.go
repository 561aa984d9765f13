// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	LogLinesSeen    prometheus.Counter
	EventsParsed    *prometheus.CounterVec
	ParseErrors     prometheus.Counter
	UnknownEvents   prometheus.Counter
	FailedTxSkipped prometheus.Counter

	// Reducer metrics
	EventsApplied    *prometheus.CounterVec
	DuplicateTrades  prometheus.Counter
	SnapshotsWritten prometheus.Counter
	ReducerErrors    *prometheus.CounterVec

	// Connection metrics
	WSReconnects    prometheus.Counter
	HighestSlotSeen prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Quote API metrics
	QuotesServed *prometheus.CounterVec
	QuoteErrors  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trasim"
	}

	return &Metrics{
		LogLinesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "log_lines_seen_total",
			Help:      "Total number of program log lines inspected",
		}),
		EventsParsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_parsed_total",
			Help:      "Total number of events parsed by kind",
		}, []string{"kind"}),
		ParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "parse_errors_total",
			Help:      "Total number of malformed event payloads",
		}),
		UnknownEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "unknown_events_total",
			Help:      "Total number of events with an unrecognized kind",
		}),
		FailedTxSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "failed_tx_skipped_total",
			Help:      "Total number of notifications skipped because the transaction failed",
		}),

		EventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reducer",
			Name:      "events_applied_total",
			Help:      "Total number of events applied to storage by kind",
		}, []string{"kind"}),
		DuplicateTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reducer",
			Name:      "duplicate_trades_total",
			Help:      "Total number of trades skipped because the signature was already applied",
		}),
		SnapshotsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reducer",
			Name:      "snapshots_written_total",
			Help:      "Total number of market snapshots written",
		}),
		ReducerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reducer",
			Name:      "errors_total",
			Help:      "Total number of reducer failures by kind",
		}, []string{"kind"}),

		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_slot_seen",
			Help:      "Highest slot observed in log notifications",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors by operation",
		}, []string{"operation"}),

		QuotesServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "quotes_served_total",
			Help:      "Total number of quotes served by side",
		}, []string{"side"}),
		QuoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "quote_errors_total",
			Help:      "Total number of quote failures by reason",
		}, []string{"reason"}),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// Default returns the process-wide Metrics instance, registering it on first
// use. promauto panics on double registration, so the instance is shared.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics("")
	})
	return defaultMetrics
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
