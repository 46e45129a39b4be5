// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package main is the entry point for the Rookery feed server.
//
// Rookery ranks and serves personalized social feeds: a blended home feed
// (own + followed + explore candidates), a following-only feed, and a
// taste-boosted explore feed, plus idempotent impression recording.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, YAML file, env)
//  2. Logging: global zerolog logger
//  3. Stores: in-memory content/graph store; Badger-backed taste profiles
//     and impression dedup keys (or in-memory, per PROFILE_BACKEND)
//  4. Feed engine: scorer, candidate retrieval, taste builder, interleaver
//  5. HTTP API: chi router with feed, impression, health, and metrics routes
//  6. Supervisor: suture tree running the HTTP server and profile janitor
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. See internal/config for the full surface.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, drains in-flight requests within the shutdown
// timeout, and closes the Badger store.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rookery-social/rookery/internal/api"
	"github.com/rookery-social/rookery/internal/config"
	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/store/badgerstore"
	"github.com/rookery-social/rookery/internal/store/memstore"
	"github.com/rookery-social/rookery/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("go_version", runtime.Version()).
		Msg("Starting Rookery feed server")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.AppUptime.Set(time.Since(startTime).Seconds())
		}
	}()

	// The memstore backs content, the social graph, the interaction ledger,
	// and the author directory. Profiles and impression dedup keys move to
	// Badger when configured.
	ms := memstore.New()
	if cfg.Store.SeedDevData {
		memstore.Seed(ms, time.Now())
	}

	deps := feed.Dependencies{
		Content:     ms,
		Ledger:      ms,
		Graph:       ms,
		Authors:     ms,
		Engagement:  ms,
		Profiles:    ms,
		Impressions: ms,
	}

	var db *badger.DB
	if cfg.Store.ProfileBackend == "badger" {
		db, err = badgerstore.Open(cfg.Store.BadgerPath)
		if err != nil {
			return fmt.Errorf("open badger store at %q: %w", cfg.Store.BadgerPath, err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logging.Warn().Err(cerr).Msg("Failed to close badger store")
			}
		}()

		deps.Profiles = badgerstore.NewProfileStore(db)
		deps.Impressions = badgerstore.NewImpressionStore(db)

		logging.Info().Str("path", cfg.Store.BadgerPath).Msg("Badger profile store open")
	}

	engine := feed.NewEngine(cfg.Ranking, deps)

	handlers := api.NewHandlers(engine).WithReadiness(func(_ context.Context) error {
		if db != nil && db.IsClosed() {
			return fmt.Errorf("badger store is closed")
		}
		return nil
	})

	router := api.NewRouter(handlers, api.RouterConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if cfg.Janitor.Enabled {
		janitor := supervisor.NewJanitorService(engine.Taste(), supervisor.JanitorConfig{
			Interval:  cfg.Janitor.Interval,
			BatchSize: cfg.Janitor.BatchSize,
		}, logging.Logger())
		if db != nil {
			gcDB := db
			janitor.WithStoreGC(func() error {
				badgerstore.RunGC(gcDB)
				return nil
			})
		}
		tree.AddMaintenanceService(janitor)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
