// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package metrics defines the Prometheus instrumentation for Prefetch:
// ingestion throughput, journal append outcomes (including the otherwise
// silent fire-and-forget write failures), heartbeat buffer pressure,
// aggregation latency, and API request metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_ingest_total",
			Help: "Total accepted telemetry submissions by kind",
		},
		[]string{"kind"}, // "event", "heartbeat"
	)

	IngestRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_ingest_rejected_total",
			Help: "Total submissions rejected as malformed JSON",
		},
	)

	// Journal metrics
	JournalAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_appends_total",
			Help: "Total payloads appended to a durable log",
		},
		[]string{"log"},
	)

	JournalAppendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_append_errors_total",
			Help: "Total failed appends to a durable log",
		},
		[]string{"log"},
	)

	JournalQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "journal_queue_depth",
			Help: "Number of payloads waiting for the journal writer",
		},
		[]string{"log"},
	)

	// Heartbeat buffer metrics
	HeartbeatPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heartbeat_buffer_pending",
			Help: "Heartbeat lines waiting for the next flush tick",
		},
	)

	HeartbeatDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heartbeat_buffer_dropped_total",
			Help: "Heartbeat lines dropped by the buffer overflow policy",
		},
	)

	HeartbeatFlushBatch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heartbeat_flush_batch_size",
			Help:    "Number of heartbeat lines written per flush tick",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Aggregation metrics
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_aggregation_duration_seconds",
			Help:    "Time to rebuild the session report from the event log",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregationSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_aggregation_sessions",
			Help: "Distinct sessions in the most recent aggregation",
		},
	)

	AggregationSkippedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_aggregation_skipped_lines_total",
			Help: "Log lines skipped during aggregation because they failed to parse",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordIngest counts an accepted submission of the given kind.
func RecordIngest(kind string) {
	IngestTotal.WithLabelValues(kind).Inc()
}

// RecordIngestRejected counts a malformed submission.
func RecordIngestRejected() {
	IngestRejected.Inc()
}

// RecordJournalAppend counts a successful append to the named log.
func RecordJournalAppend(log string) {
	JournalAppends.WithLabelValues(log).Inc()
}

// RecordJournalAppendError counts a failed append to the named log.
func RecordJournalAppendError(log string) {
	JournalAppendErrors.WithLabelValues(log).Inc()
}

// SetJournalQueueDepth reports the current writer queue depth for the named log.
func SetJournalQueueDepth(log string, depth int) {
	JournalQueueDepth.WithLabelValues(log).Set(float64(depth))
}

// SetHeartbeatPending reports the current heartbeat buffer size.
func SetHeartbeatPending(n int) {
	HeartbeatPending.Set(float64(n))
}

// RecordHeartbeatDropped counts a heartbeat discarded by the overflow policy.
func RecordHeartbeatDropped() {
	HeartbeatDropped.Inc()
}

// RecordHeartbeatFlush records the batch size of a completed flush tick.
func RecordHeartbeatFlush(batch int) {
	HeartbeatFlushBatch.Observe(float64(batch))
}

// ObserveAggregation records one rebuild of the session report.
func ObserveAggregation(d time.Duration, sessions, skipped int) {
	AggregationDuration.Observe(d.Seconds())
	AggregationSessions.Set(float64(sessions))
	if skipped > 0 {
		AggregationSkippedLines.Add(float64(skipped))
	}
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
