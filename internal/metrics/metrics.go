// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package metrics provides Prometheus instrumentation for the telemetry
// pipeline: intake volume, queue health, processor outcomes, HTTP latency
// and WebSocket fan-out.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_events_received_total",
			Help: "Total telemetry events accepted by the intake endpoints",
		},
		[]string{"event_type"},
	)

	EventsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_events_enqueued_total",
			Help: "Total events published to the durable queue",
		},
	)

	EnqueueErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_enqueue_errors_total",
			Help: "Total failures publishing events to the durable queue",
		},
	)

	// Processor metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_events_processed_total",
			Help: "Total events fully processed into the relational store",
		},
		[]string{"event_type"},
	)

	EventsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_events_failed_total",
			Help: "Total events whose processing attempt failed (will be retried)",
		},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_events_deduplicated_total",
			Help: "Total redelivered events skipped by the idempotency key",
		},
	)

	EventsPoisoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_events_poisoned_total",
			Help: "Total events routed to the poison queue after exhausted retries",
		},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playgrid_event_processing_duration_seconds",
			Help:    "End-to-end duration of one processor job",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	TransactionsDerived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_transactions_derived_total",
			Help: "Total ledger entries derived from economic events",
		},
		[]string{"kind"},
	)

	// Economy aggregator metrics
	SnapshotRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_economy_snapshot_runs_total",
			Help: "Total metric aggregation runs by outcome",
		},
		[]string{"outcome"}, // "success", "error", "skipped"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_api_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playgrid_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playgrid_websocket_connections",
			Help: "Current number of connected dashboard clients",
		},
	)

	WSBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playgrid_websocket_broadcasts_total",
			Help: "Total messages fanned out to dashboard clients",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_cache_hits_total",
			Help: "Total dashboard cache hits",
		},
		[]string{"layer"}, // "memory", "kv"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playgrid_cache_misses_total",
			Help: "Total dashboard cache misses",
		},
		[]string{"layer"},
	)
)

// RecordEventReceived counts one accepted intake event.
func RecordEventReceived(eventType string) {
	EventsReceived.WithLabelValues(eventType).Inc()
}

// RecordEnqueue counts one publish outcome.
func RecordEnqueue(err error) {
	if err != nil {
		EnqueueErrors.Inc()
		return
	}
	EventsEnqueued.Inc()
}

// RecordProcessed counts one fully processed event and its duration.
func RecordProcessed(eventType string, duration time.Duration) {
	EventsProcessed.WithLabelValues(eventType).Inc()
	ProcessingDuration.Observe(duration.Seconds())
}

// RecordAPIRequest counts one HTTP request with its latency.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTransactionDerived counts one derived ledger entry.
func RecordTransactionDerived(kind string) {
	TransactionsDerived.WithLabelValues(kind).Inc()
}
