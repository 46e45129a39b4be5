// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"fmt"
	"time"
)

// Config contains all tunables for the ranking core. Values are hand-tuned;
// none are derived from trained models.
type Config struct {
	// Scoring contains the score-function weights.
	Scoring ScoringConfig `json:"scoring" koanf:"scoring"`

	// Taste contains taste-profile rebuild parameters.
	Taste TasteConfig `json:"taste" koanf:"taste"`

	// Home contains home-feed assembly parameters.
	Home HomeConfig `json:"home" koanf:"home"`

	// Explore contains explore-feed assembly parameters.
	Explore ExploreConfig `json:"explore" koanf:"explore"`

	// Limits contains shared pagination bounds.
	Limits LimitsConfig `json:"limits" koanf:"limits"`
}

// ScoringConfig contains the weights of the scoring function.
type ScoringConfig struct {
	// FreshnessHalfLifeHours controls freshness decay:
	// freshness = 1 / (1 + ageHours/FreshnessHalfLifeHours).
	// Default: 12.
	FreshnessHalfLifeHours float64 `json:"freshness_half_life_hours" koanf:"freshness_half_life_hours"`

	// MinAgeHours floors the item age used for freshness so just-published
	// items do not blow up the curve. Default: 0.1.
	MinAgeHours float64 `json:"min_age_hours" koanf:"min_age_hours"`

	// Engagement counter weights.
	HeartWeight      float64 `json:"heart_weight" koanf:"heart_weight"`           // default 2
	CommentWeight    float64 `json:"comment_weight" koanf:"comment_weight"`       // default 3
	SaveWeight       float64 `json:"save_weight" koanf:"save_weight"`             // default 4
	ShareWeight      float64 `json:"share_weight" koanf:"share_weight"`           // default 3
	RepostWeight     float64 `json:"repost_weight" koanf:"repost_weight"`         // default 3
	ViewWeight       float64 `json:"view_weight" koanf:"view_weight"`             // default 0.3
	ImpressionWeight float64 `json:"impression_weight" koanf:"impression_weight"` // default 0.1

	// QualityTilt scales the (quality - spam) multiplicative adjustment:
	// 1 + (quality - spam) * QualityTilt. A small tilt, not a hard filter.
	// Default: 0.01.
	QualityTilt float64 `json:"quality_tilt" koanf:"quality_tilt"`

	// FollowedBoost multiplies scores of items authored by a followee.
	// Default: 1.3.
	FollowedBoost float64 `json:"followed_boost" koanf:"followed_boost"`

	// Interest boost parameters (Explore only).
	// interest = authorWeight*InterestAuthorFactor + kindWeight*InterestKindFactor
	//          + sum(hashtag weights, first InterestHashtagLimit tags)
	//          + sum(topic weights, first InterestTopicLimit topics)
	// boost = 1 + min(InterestCap, max(0, interest/InterestDivisor))
	InterestAuthorFactor float64 `json:"interest_author_factor" koanf:"interest_author_factor"` // default 1.2
	InterestKindFactor   float64 `json:"interest_kind_factor" koanf:"interest_kind_factor"`     // default 0.4
	InterestHashtagLimit int     `json:"interest_hashtag_limit" koanf:"interest_hashtag_limit"` // default 8
	InterestTopicLimit   int     `json:"interest_topic_limit" koanf:"interest_topic_limit"`     // default 6

	// InterestDivisor and InterestCap bound the interest boost. They are
	// tunable rather than derived; the defaults match long-standing
	// production values.
	InterestDivisor float64 `json:"interest_divisor" koanf:"interest_divisor"` // default 20
	InterestCap     float64 `json:"interest_cap" koanf:"interest_cap"`         // default 0.6
}

// TasteConfig contains taste-profile rebuild parameters.
type TasteConfig struct {
	// StalenessTTL is how old a profile may be before a request triggers a
	// synchronous rebuild. Stale-but-present profiles still serve reads.
	// Default: 6h.
	StalenessTTL time.Duration `json:"staleness_ttl" koanf:"staleness_ttl"`

	// HistoryWindow is how far back interactions feed the rebuild.
	// Default: 720h (30 days).
	HistoryWindow time.Duration `json:"history_window" koanf:"history_window"`

	// MaxRecords bounds the number of interactions considered, newest
	// first. Default: 2000.
	MaxRecords int `json:"max_records" koanf:"max_records"`

	// DecayDays is the exponential decay constant: decay = e^(-ageDays/DecayDays).
	// Default: 14 (half-life ~9.7 days).
	DecayDays float64 `json:"decay_days" koanf:"decay_days"`

	// Per-type base weights.
	SaveBase   float64 `json:"save_base" koanf:"save_base"`     // default 5
	RepostBase float64 `json:"repost_base" koanf:"repost_base"` // default 4
	LikeBase   float64 `json:"like_base" koanf:"like_base"`     // default 3
	ShareBase  float64 `json:"share_base" koanf:"share_base"`   // default 3

	// View base = min(ViewBaseCap, max(0, ViewBaseFactor * completionRatio)).
	ViewBaseFactor float64 `json:"view_base_factor" koanf:"view_base_factor"` // default 2
	ViewBaseCap    float64 `json:"view_base_cap" koanf:"view_base_cap"`       // default 2.5

	// DefaultReferenceDurationMs is the completion-ratio denominator for
	// items without a primary video duration. Default: 8000.
	DefaultReferenceDurationMs int64 `json:"default_reference_duration_ms" koanf:"default_reference_duration_ms"`

	// HashtagLimit / TopicLimit bound how many of an item's tags receive
	// weight during accumulation. Defaults: 8 / 6.
	HashtagLimit int `json:"hashtag_limit" koanf:"hashtag_limit"`
	TopicLimit   int `json:"topic_limit" koanf:"topic_limit"`
}

// HomeConfig contains home-feed assembly parameters.
type HomeConfig struct {
	// MaxPoolSize caps the per-source candidate pool. The effective pool
	// is page*pageSize*PoolOverfetch, capped here. Default: 500.
	MaxPoolSize int `json:"max_pool_size" koanf:"max_pool_size"`

	// PoolOverfetch scales the requested page window into a candidate pool
	// budget. Default: 3.
	PoolOverfetch int `json:"pool_overfetch" koanf:"pool_overfetch"`

	// ExploreWindow is the freshness window for explore items mixed into
	// the home feed. Default: 14 days.
	ExploreWindow time.Duration `json:"explore_window" koanf:"explore_window"`

	// InterleaveRun is the number of non-reel items per interleave cycle.
	// Default: 3 (pattern: 3 posts, then 1 reel).
	InterleaveRun int `json:"interleave_run" koanf:"interleave_run"`

	// ReelShare bounds the reel quota of a page:
	// quota = max(1, floor(pageSize*ReelShare)). Default: 0.3.
	ReelShare float64 `json:"reel_share" koanf:"reel_share"`
}

// ExploreConfig contains explore-feed assembly parameters.
type ExploreConfig struct {
	// PoolSize is the fixed explore candidate pool size. Default: 1000.
	PoolSize int `json:"pool_size" koanf:"pool_size"`

	// Window is the freshness window of the explore surface.
	// Default: 30 days.
	Window time.Duration `json:"window" koanf:"window"`

	// MaxPerAuthor is the diversity cap: at most this many admitted items
	// per author. Default: 2.
	MaxPerAuthor int `json:"max_per_author" koanf:"max_per_author"`
}

// LimitsConfig contains shared pagination bounds.
type LimitsConfig struct {
	// MaxPageSize bounds pageSize. Default: 50.
	MaxPageSize int `json:"max_page_size" koanf:"max_page_size"`

	// MaxPage bounds page. Default: 50.
	MaxPage int `json:"max_page" koanf:"max_page"`
}

// DefaultConfig returns the production defaults for the ranking core.
func DefaultConfig() Config {
	return Config{
		Scoring: ScoringConfig{
			FreshnessHalfLifeHours: 12,
			MinAgeHours:            0.1,
			HeartWeight:            2,
			CommentWeight:          3,
			SaveWeight:             4,
			ShareWeight:            3,
			RepostWeight:           3,
			ViewWeight:             0.3,
			ImpressionWeight:       0.1,
			QualityTilt:            0.01,
			FollowedBoost:          1.3,
			InterestAuthorFactor:   1.2,
			InterestKindFactor:     0.4,
			InterestHashtagLimit:   8,
			InterestTopicLimit:     6,
			InterestDivisor:        20,
			InterestCap:            0.6,
		},
		Taste: TasteConfig{
			StalenessTTL:               6 * time.Hour,
			HistoryWindow:              30 * 24 * time.Hour,
			MaxRecords:                 2000,
			DecayDays:                  14,
			SaveBase:                   5,
			RepostBase:                 4,
			LikeBase:                   3,
			ShareBase:                  3,
			ViewBaseFactor:             2,
			ViewBaseCap:                2.5,
			DefaultReferenceDurationMs: 8000,
			HashtagLimit:               8,
			TopicLimit:                 6,
		},
		Home: HomeConfig{
			MaxPoolSize:   500,
			PoolOverfetch: 3,
			ExploreWindow: 14 * 24 * time.Hour,
			InterleaveRun: 3,
			ReelShare:     0.3,
		},
		Explore: ExploreConfig{
			PoolSize:     1000,
			Window:       30 * 24 * time.Hour,
			MaxPerAuthor: 2,
		},
		Limits: LimitsConfig{
			MaxPageSize: 50,
			MaxPage:     50,
		},
	}
}

// Validate checks the configuration for values that would break ranking
// invariants. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Scoring.FreshnessHalfLifeHours <= 0 {
		return fmt.Errorf("scoring.freshness_half_life_hours must be positive, got %v", c.Scoring.FreshnessHalfLifeHours)
	}
	if c.Scoring.MinAgeHours <= 0 {
		return fmt.Errorf("scoring.min_age_hours must be positive, got %v", c.Scoring.MinAgeHours)
	}
	if c.Scoring.FollowedBoost < 1 {
		return fmt.Errorf("scoring.followed_boost must be >= 1, got %v", c.Scoring.FollowedBoost)
	}
	if c.Scoring.InterestDivisor <= 0 {
		return fmt.Errorf("scoring.interest_divisor must be positive, got %v", c.Scoring.InterestDivisor)
	}
	if c.Scoring.InterestCap < 0 {
		return fmt.Errorf("scoring.interest_cap must be non-negative, got %v", c.Scoring.InterestCap)
	}
	if c.Taste.StalenessTTL <= 0 {
		return fmt.Errorf("taste.staleness_ttl must be positive, got %v", c.Taste.StalenessTTL)
	}
	if c.Taste.HistoryWindow <= 0 {
		return fmt.Errorf("taste.history_window must be positive, got %v", c.Taste.HistoryWindow)
	}
	if c.Taste.MaxRecords <= 0 {
		return fmt.Errorf("taste.max_records must be positive, got %d", c.Taste.MaxRecords)
	}
	if c.Taste.DecayDays <= 0 {
		return fmt.Errorf("taste.decay_days must be positive, got %v", c.Taste.DecayDays)
	}
	if c.Taste.DefaultReferenceDurationMs <= 0 {
		return fmt.Errorf("taste.default_reference_duration_ms must be positive, got %d", c.Taste.DefaultReferenceDurationMs)
	}
	if c.Home.MaxPoolSize <= 0 {
		return fmt.Errorf("home.max_pool_size must be positive, got %d", c.Home.MaxPoolSize)
	}
	if c.Home.PoolOverfetch <= 0 {
		return fmt.Errorf("home.pool_overfetch must be positive, got %d", c.Home.PoolOverfetch)
	}
	if c.Home.InterleaveRun <= 0 {
		return fmt.Errorf("home.interleave_run must be positive, got %d", c.Home.InterleaveRun)
	}
	if c.Home.ReelShare <= 0 || c.Home.ReelShare > 1 {
		return fmt.Errorf("home.reel_share must be in (0, 1], got %v", c.Home.ReelShare)
	}
	if c.Explore.PoolSize <= 0 {
		return fmt.Errorf("explore.pool_size must be positive, got %d", c.Explore.PoolSize)
	}
	if c.Explore.MaxPerAuthor <= 0 {
		return fmt.Errorf("explore.max_per_author must be positive, got %d", c.Explore.MaxPerAuthor)
	}
	if c.Limits.MaxPageSize <= 0 {
		return fmt.Errorf("limits.max_page_size must be positive, got %d", c.Limits.MaxPageSize)
	}
	if c.Limits.MaxPage <= 0 {
		return fmt.Errorf("limits.max_page must be positive, got %d", c.Limits.MaxPage)
	}
	return nil
}
