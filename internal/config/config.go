// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package config defines the service configuration and its koanf-based
// loader. Configuration layers in precedence order: built-in defaults, an
// optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/validation"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Janitor JanitorConfig `koanf:"janitor"`
	Logging LoggingConfig `koanf:"logging"`

	// Ranking holds the feed engine tunables. Its defaults and validation
	// live with the engine.
	Ranking feed.Config `koanf:"ranking"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Per-viewer rate limit on feed endpoints.
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// StoreConfig selects and configures the persistence backends.
type StoreConfig struct {
	// ProfileBackend selects where taste profiles and impression dedup
	// keys live: "memory" or "badger".
	ProfileBackend string `koanf:"profile_backend" validate:"oneof=memory badger"`

	// BadgerPath is the on-disk Badger directory. Empty means in-memory
	// Badger, useful for ephemeral deployments.
	BadgerPath string `koanf:"badger_path"`

	// SeedDevData populates the in-memory content store with
	// deterministic development data on startup.
	SeedDevData bool `koanf:"seed_dev_data"`
}

// JanitorConfig configures the background taste-profile janitor.
type JanitorConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval" validate:"gt=0"`
	BatchSize int           `koanf:"batch_size" validate:"min=1"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: 1 * time.Minute,
		},
		Store: StoreConfig{
			ProfileBackend: "badger",
			BadgerPath:     "/data/rookery",
			SeedDevData:    false,
		},
		Janitor: JanitorConfig{
			Enabled:   true,
			Interval:  15 * time.Minute,
			BatchSize: 200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Ranking: feed.DefaultConfig(),
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}
	return nil
}
