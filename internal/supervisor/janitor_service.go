// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rookery-social/rookery/internal/metrics"
)

// ProfileRefresher rebuilds stale taste profiles for recently active
// viewers. Implemented by the feed engine's taste builder.
type ProfileRefresher interface {
	RefreshStale(ctx context.Context, batchLimit int) (int, error)
}

// JanitorConfig holds configuration for the profile janitor service.
type JanitorConfig struct {
	// Interval is how often a sweep runs.
	Interval time.Duration

	// BatchSize bounds how many profiles one sweep may rebuild.
	BatchSize int

	// SweepTimeout bounds a single sweep. Zero means 5 minutes.
	SweepTimeout time.Duration
}

// JanitorService periodically rebuilds stale taste profiles off the request
// path, so explore requests rarely pay the rebuild cost inline. It can also
// run an optional store maintenance hook (Badger value-log GC) after each
// sweep.
type JanitorService struct {
	refresher ProfileRefresher
	config    JanitorConfig
	logger    zerolog.Logger
	name      string

	// storeGC runs after each sweep when non-nil.
	storeGC func() error
}

// NewJanitorService creates the janitor service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitorService(refresher ProfileRefresher, cfg JanitorConfig, logger zerolog.Logger) *JanitorService {
	return &JanitorService{
		refresher: refresher,
		config:    cfg,
		logger:    logger.With().Str("service", "janitor").Logger(),
		name:      "profile-janitor",
	}
}

// WithStoreGC installs a store maintenance hook run after each sweep.
func (s *JanitorService) WithStoreGC(gc func() error) *JanitorService {
	s.storeGC = gc
	return s
}

// Serve implements the suture.Service interface.
func (s *JanitorService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.config.Interval = 15 * time.Minute
	}
	if s.config.BatchSize <= 0 {
		s.config.BatchSize = 200
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("batch_size", s.config.BatchSize).
		Msg("profile janitor starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("profile janitor shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one rebuild batch with its own timeout. Failures are logged
// and counted; the next tick tries again.
func (s *JanitorService) sweep(ctx context.Context) {
	timeout := s.config.SweepTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	sweepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rebuilt, err := s.refresher.RefreshStale(sweepCtx, s.config.BatchSize)
	if err != nil {
		metrics.TasteJanitorRuns.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("janitor sweep failed")
		return
	}

	metrics.TasteJanitorRuns.WithLabelValues("ok").Inc()
	metrics.TasteJanitorRebuilds.Add(float64(rebuilt))

	if rebuilt > 0 {
		s.logger.Info().
			Int("rebuilt", rebuilt).
			Dur("duration", time.Since(start)).
			Msg("janitor sweep complete")
	} else {
		s.logger.Debug().Msg("janitor sweep found no stale profiles")
	}

	if s.storeGC != nil {
		if err := s.storeGC(); err != nil {
			s.logger.Debug().Err(err).Msg("store gc pass skipped")
		}
	}
}

// String returns the service name for logging.
func (s *JanitorService) String() string {
	return s.name
}
