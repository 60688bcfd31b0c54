// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package metrics exposes Prometheus instrumentation for the API surface,
// the training pipeline, the suggestion engine, and the item parser. All
// collectors register on the default registry; the /metrics endpoint serves
// them via promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantry_api_requests_total",
			Help: "Total API requests by method, endpoint and status code",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantry_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Training metrics

	TrainingRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantry_training_runs_total",
			Help: "Total per-household training passes",
		},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantry_training_duration_seconds",
			Help:    "Duration of one household training pass in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// Suggestion metrics

	SuggestionRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantry_suggestion_requests_total",
			Help: "Total suggestion inference requests",
		},
	)

	SuggestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantry_suggestion_duration_seconds",
			Help:    "Suggestion inference duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SuggestionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantry_suggestions_returned",
			Help:    "Number of suggestions returned per inference",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7},
		},
	)

	FeedbackFilterFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantry_feedback_filter_failures_total",
			Help: "Feedback filter lookups that failed open during inference",
		},
	)

	// Feedback metrics

	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantry_feedback_recorded_total",
			Help: "Feedback verdicts recorded by action",
		},
		[]string{"action"},
	)

	// Parser metrics

	ParseRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantry_parse_requests_total",
			Help: "Item parse requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ParseBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plantry_parse_breaker_open",
			Help: "1 when the parse provider circuit breaker is open",
		},
	)

	// Cleanup metrics

	RejectsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantry_rejects_cleaned_total",
			Help: "Expired reject records removed by the cleanup sweep",
		},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTraining records one household training pass. No per-household
// label: unbounded households would mean unbounded cardinality.
func RecordTraining(duration time.Duration) {
	TrainingRuns.Inc()
	TrainingDuration.Observe(duration.Seconds())
}

// RecordSuggestion records one inference pass.
func RecordSuggestion(duration time.Duration, returned int) {
	SuggestionRequests.Inc()
	SuggestionDuration.Observe(duration.Seconds())
	SuggestionsReturned.Observe(float64(returned))
}

// RecordFeedback records one stored feedback verdict.
func RecordFeedback(action string) {
	FeedbackRecorded.WithLabelValues(action).Inc()
}

// RecordParse records one parse attempt outcome.
func RecordParse(provider, outcome string) {
	ParseRequests.WithLabelValues(provider, outcome).Inc()
}
