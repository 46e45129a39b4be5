// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/middleware"
)

// RouterConfig holds the middleware knobs for the HTTP surface.
type RouterConfig struct {
	CORSOrigins []string

	// Per-viewer rate limit applied to the feed route group. Health and
	// metrics get a separate permissive IP-based limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// Health endpoints allow frequent probes from orchestrators and monitors.
var healthRateLimit = 1000

// NewRouter assembles the chi router: global middleware, the versioned feed
// route group with per-viewer rate limiting, health probes, and the
// Prometheus scrape endpoint.
func NewRouter(h *Handlers, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", ViewerIDHeader, "X-Request-ID"},
		MaxAge:         86400,
	}))
	r.Use(middleware.PrometheusMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/feed", func(r chi.Router) {
			r.Use(feedRateLimiter(cfg))

			r.Get("/home", h.GetHomeFeed)
			r.Get("/following", h.GetFollowingFeed)
			r.Get("/explore", h.GetExploreFeed)
			r.Post("/impressions", h.PostImpression)
		})

		r.Route("/health", func(r chi.Router) {
			r.Use(httprate.LimitByIP(healthRateLimit, time.Minute))

			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// feedRateLimiter limits feed requests per viewer so one client cannot
// starve the candidate stores. Unidentified requests fall back to the
// client IP as the key.
func feedRateLimiter(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}

	keyFunc := func(r *http.Request) (string, error) {
		if viewer := viewerID(r); viewer != "" {
			return viewer, nil
		}
		return httprate.KeyByIP(r)
	}

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
		rw := NewResponseWriter(w, r)
		rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded", nil)
	}

	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(onLimit),
	)
}
