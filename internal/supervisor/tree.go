// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package supervisor provides suture v4 process supervision for the feed
// service. The tree has two layers for failure isolation:
//
//	RootSupervisor ("rookery")
//	├── APISupervisor ("api-layer")
//	│   └── HTTPServerService
//	└── MaintenanceSupervisor ("maintenance-layer")
//	    └── JanitorService
//
// A crash in the background janitor never takes down the HTTP surface, and
// an HTTP restart never interrupts a profile rebuild batch.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes suture's restart behavior for every supervisor in the
// tree. See normalize for the defaults applied to zero values.
type TreeConfig struct {
	// FailureThreshold is how many decayed failures trip the backoff.
	FailureThreshold float64

	// FailureDecay is the failure half-life in seconds.
	FailureDecay float64

	// FailureBackoff is how long a tripped supervisor pauses restarts.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds graceful shutdown of each service.
	ShutdownTimeout time.Duration
}

// normalize fills zero fields with suture's documented defaults.
func (c TreeConfig) normalize() TreeConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5.0
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30.0
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// DefaultTreeConfig returns the fully populated default configuration.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{}.normalize()
}

// spec converts the config to a suture.Spec. The event hook only goes on the
// root; child supervisors inherit it when added.
func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree is the two-layer supervisor hierarchy described in the package doc.
type Tree struct {
	root        *suture.Supervisor
	api         *suture.Supervisor
	maintenance *suture.Supervisor
	config      TreeConfig
}

// NewTree builds the supervisor hierarchy. Supervision events are logged
// through logger via sutureslog.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	cfg := config.normalize()

	// sutureslog's Handler.MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &Tree{
		root:        suture.New("rookery", cfg.spec(hook)),
		api:         suture.New("api-layer", cfg.spec(nil)),
		maintenance: suture.New("maintenance-layer", cfg.spec(nil)),
		config:      cfg,
	}
	t.root.Add(t.api)
	t.root.Add(t.maintenance)
	return t
}

// AddAPIService places svc under the API layer supervisor.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// AddMaintenanceService places svc under the maintenance layer supervisor.
func (t *Tree) AddMaintenanceService(svc suture.Service) suture.ServiceToken {
	return t.maintenance.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the returned channel yields
// the exit error (or nil) when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
