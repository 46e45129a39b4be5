// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

/*
Package metrics provides Prometheus metrics collection and export for
observability.

# Overview

The package instruments:
  - Feed assembly latency, candidate pool sizes, and served-item counts
  - Taste profile rebuilds, read outcomes, and the rebuild circuit breaker
  - Impression recording and deduplication outcomes
  - API endpoint latency, throughput, and rate limit rejections
  - Persistent store (Badger) operation latency and errors

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage Example

	start := time.Now()
	page, err := engine.HomeFeed(ctx, req)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordFeedRequest("home", result, time.Since(start))

# Cardinality Management

To prevent high cardinality:
  - Endpoint labels use chi route patterns, never raw paths
  - Result labels are limited to predefined constants
  - Viewer and item IDs are never used as labels

# Thread Safety

All metric recording functions are safe for concurrent use from multiple
goroutines; the Prometheus client library handles synchronization internally.
*/
package metrics
