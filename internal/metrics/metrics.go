// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the feed engine:
// - Feed request latency and candidate pool sizes
// - Taste profile rebuild outcomes and circuit breaker state
// - Impression recording and deduplication
// - API endpoint latency and throughput
// - Profile/impression store (Badger) operations

var (
	// Feed Assembly Metrics
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed assembly requests",
		},
		[]string{"surface", "result"}, // surface: "home", "following", "explore"; result: "ok", "invalid", "error"
	)

	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_request_duration_seconds",
			Help:    "Duration of feed assembly in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"surface"},
	)

	FeedCandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_candidate_pool_size",
			Help:    "Number of candidates entering the scorer per request",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 1500},
		},
		[]string{"surface"},
	)

	FeedCandidatesBySource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_candidates_by_source_total",
			Help: "Total number of candidates retrieved, by pool",
		},
		[]string{"source"}, // "own", "followed", "explore"
	)

	FeedItemsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_served_total",
			Help: "Total number of feed items returned to viewers",
		},
		[]string{"surface", "kind"},
	)

	FeedDiversityEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_diversity_evictions_total",
			Help: "Total number of explore candidates dropped by the per-author cap",
		},
	)

	// Taste Profile Metrics
	TasteRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taste_rebuilds_total",
			Help: "Total number of taste profile rebuilds",
		},
		[]string{"result"}, // "ok", "error"
	)

	TasteRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taste_rebuild_duration_seconds",
			Help:    "Duration of taste profile rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasteProfileReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taste_profile_reads_total",
			Help: "Total number of taste profile reads by outcome",
		},
		[]string{"outcome"}, // "fresh", "rebuilt", "stale_served", "absent"
	)

	TasteBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taste_breaker_state",
			Help: "Taste rebuild circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	TasteJanitorRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taste_janitor_rebuilds_total",
			Help: "Total number of profiles rebuilt by the background janitor",
		},
	)

	TasteJanitorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taste_janitor_runs_total",
			Help: "Total number of janitor sweeps",
		},
		[]string{"result"}, // "ok", "error"
	)

	// Impression Metrics
	ImpressionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impressions_recorded_total",
			Help: "Total number of impression recording attempts",
		},
		[]string{"result"}, // "recorded", "duplicate", "invalid", "not_found", "forbidden", "error"
	)

	// API Endpoint Metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Store Metrics (Badger-backed profile and impression stores)
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of persistent store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"}, // store: "profile", "impression"
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of persistent store operation errors",
		},
		[]string{"store", "operation"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordFeedRequest records one feed assembly attempt.
func RecordFeedRequest(surface, result string, duration time.Duration) {
	FeedRequests.WithLabelValues(surface, result).Inc()
	if result == "ok" {
		FeedRequestDuration.WithLabelValues(surface).Observe(duration.Seconds())
	}
}

// RecordCandidatePool records the scored pool size for one request.
func RecordCandidatePool(surface string, size int) {
	FeedCandidatePoolSize.WithLabelValues(surface).Observe(float64(size))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records one persistent store operation.
func RecordStoreOperation(store, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(store, operation).Inc()
	}
}
