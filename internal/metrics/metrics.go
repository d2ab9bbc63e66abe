// Package metrics holds the Prometheus instruments of the search service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive is the number of live query sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parsearch_sessions_active",
		Help: "Number of live query sessions",
	})
	// SessionsTotal counts sessions by how they ended: created, removed or expired.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsearch_sessions_total",
			Help: "Total number of query session lifecycle events",
		},
		[]string{"event"},
	)
	// RowsIngested counts rows accepted from row sources.
	RowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parsearch_rows_ingested_total",
		Help: "Total number of rows read from row sources",
	})
	// IngestErrors counts failed ingestion tasks.
	IngestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parsearch_ingest_errors_total",
		Help: "Total number of failed ingestion tasks",
	})
	// IngestDuration is the time a session spends reading its source.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parsearch_ingest_duration_seconds",
		Help:    "Time spent ingesting rows per session",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
	// ResultsTotal counts component results by fetch mode and outcome:
	// sent, unchanged, skipped or error.
	ResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsearch_results_total",
			Help: "Total number of component results by outcome",
		},
		[]string{"fetch", "outcome"},
	)
	// RequestTotal counts HTTP requests.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parsearch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
