// Package metrics holds the Prometheus collectors of the attempt engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsStarted counts Start calls by outcome: created, resumed, denied.
	AttemptsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramtest_attempts_started_total",
			Help: "Total number of attempt start requests",
		},
		[]string{"outcome", "format"},
	)

	// AttemptsCompleted counts completions; trigger is manual or auto.
	AttemptsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramtest_attempts_completed_total",
			Help: "Total number of completed attempts",
		},
		[]string{"trigger", "format"},
	)

	// AnswersSaved counts answer writes by transport (http, ws).
	AnswersSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramtest_answers_saved_total",
			Help: "Total number of saved answers",
		},
		[]string{"transport"},
	)

	// DuplicateAnswersRemoved counts records deleted during answer reconciliation.
	DuplicateAnswersRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gramtest_duplicate_answers_removed_total",
			Help: "Total number of duplicate answer records removed",
		},
	)

	// AttemptsExpired counts attempts the expiry sweep queued for auto-completion.
	AttemptsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gramtest_attempts_expired_total",
			Help: "Total number of attempts found past their time limit",
		},
	)

	// ScorePercentage observes the final percentage of completed attempts.
	ScorePercentage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gramtest_score_percentage",
			Help:    "Final percentage of completed attempts",
			Buckets: []float64{20, 40, 60, 80, 91, 100},
		},
		[]string{"format"},
	)

	// RecomputeDuration observes how long a full re-score of one attempt takes.
	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gramtest_recompute_duration_seconds",
			Help:    "Time spent re-scoring an attempt",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CatalogCache counts test catalog lookups by result: hit, miss, error.
	CatalogCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramtest_catalog_cache_total",
			Help: "Test catalog cache lookups",
		},
		[]string{"result"},
	)

	// NotifyFailures counts lifecycle events that could not be delivered.
	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gramtest_notify_failures_total",
			Help: "Total number of lifecycle events that failed to publish",
		},
	)

	// HTTPRequestDuration observes API latency per route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gramtest_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// ActiveStreams tracks open student websocket streams.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gramtest_active_streams",
			Help: "Current number of open attempt websocket streams",
		},
	)
)
