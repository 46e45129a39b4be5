// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"math"
	"sort"
	"time"

	"github.com/rookery-social/rookery/internal/models"
)

// CandidateSource identifies which retrieval pool produced a candidate.
type CandidateSource string

const (
	// SourceOwn marks the viewer's own recent items.
	SourceOwn CandidateSource = "own"
	// SourceFollowed marks items from followed authors.
	SourceFollowed CandidateSource = "followed"
	// SourceExplore marks popular items from outside the follow graph.
	SourceExplore CandidateSource = "explore"
)

// ViewerContext carries the per-viewer state the scorer consults. It is
// assembled once per request and then treated as read-only.
type ViewerContext struct {
	// ViewerID is the requesting viewer.
	ViewerID string

	// Followees is the set of author IDs the viewer follows.
	Followees map[string]struct{}

	// Blocked is the bidirectional block set.
	Blocked map[string]struct{}

	// Profile is the viewer's taste profile. Nil disables the interest
	// boost (cold start, or rebuild fallback).
	Profile *models.TasteProfile

	// Viewed is the set of item IDs the viewer has already viewed.
	// Viewed items sort after unviewed ones regardless of score.
	Viewed map[string]struct{}

	// Now anchors all age computations for the request.
	Now time.Time
}

// ScoredCandidate pairs an item with its computed score and ordering keys.
type ScoredCandidate struct {
	Item   models.ContentItem
	Source CandidateSource

	// Score is the final hand-tuned score.
	Score float64

	// Viewed mirrors membership in ViewerContext.Viewed; viewed items are
	// demoted below all unviewed items.
	Viewed bool
}

// Scorer computes candidate scores from engagement, freshness, quality, the
// follow relationship, and (optionally) the viewer's taste profile.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer with the given weights.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Freshness returns the freshness factor for an item of the given age in
// hours. Freshness is 1 at age zero and halves at the configured half-life.
// Negative ages are treated as zero.
func (s *Scorer) Freshness(ageHours float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	return 1 / (1 + ageHours/s.cfg.FreshnessHalfLifeHours)
}

// EngagementScore returns the weighted sum of the item's engagement counters.
func (s *Scorer) EngagementScore(c models.EngagementCounters) float64 {
	return float64(c.Hearts)*s.cfg.HeartWeight +
		float64(c.Comments)*s.cfg.CommentWeight +
		float64(c.Saves)*s.cfg.SaveWeight +
		float64(c.Shares)*s.cfg.ShareWeight +
		float64(c.Reposts)*s.cfg.RepostWeight +
		float64(c.Views)*s.cfg.ViewWeight +
		float64(c.Impressions)*s.cfg.ImpressionWeight
}

// qualityTilt returns the multiplicative quality adjustment,
// 1 + (quality - spam) * tilt, floored at zero so a pathological spam score
// cannot flip the sign of the final score.
func (s *Scorer) qualityTilt(item *models.ContentItem) float64 {
	tilt := 1 + (item.QualityScore-item.SpamScore)*s.cfg.QualityTilt
	if tilt < 0 {
		return 0
	}
	return tilt
}

// InterestBoost returns the taste-profile boost for an item,
// 1 + min(cap, max(0, interest/divisor)). A nil profile yields exactly 1.
// Only the first few hashtags and topics of the item contribute, in stored
// order, so tag stuffing past the limits buys nothing.
func (s *Scorer) InterestBoost(profile *models.TasteProfile, item *models.ContentItem) float64 {
	if profile == nil {
		return 1
	}

	interest := profile.Authors[item.AuthorID]*s.cfg.InterestAuthorFactor +
		profile.Kinds[string(item.Kind)]*s.cfg.InterestKindFactor

	for i, tag := range item.Hashtags {
		if i >= s.cfg.InterestHashtagLimit {
			break
		}
		interest += profile.Hashtags[tag]
	}
	for i, topic := range item.Topics {
		if i >= s.cfg.InterestTopicLimit {
			break
		}
		interest += profile.Topics[topic]
	}

	boost := interest / s.cfg.InterestDivisor
	if boost < 0 {
		boost = 0
	}
	if boost > s.cfg.InterestCap {
		boost = s.cfg.InterestCap
	}
	return 1 + boost
}

// Score computes the home-feed score for one candidate. The interest boost is
// not applied here; home ranking relies on the follow relationship only.
func (s *Scorer) Score(vc *ViewerContext, item *models.ContentItem, source CandidateSource) float64 {
	ageHours := vc.Now.Sub(item.PublishedAt).Hours()
	if ageHours < s.cfg.MinAgeHours {
		ageHours = s.cfg.MinAgeHours
	}

	score := (s.EngagementScore(item.Counters) + 1) * s.Freshness(ageHours) * s.qualityTilt(item)

	if source == SourceOwn {
		return score
	}
	if _, followed := vc.Followees[item.AuthorID]; followed {
		score *= s.cfg.FollowedBoost
	}
	return score
}

// ScoreWithInterest computes the explore score for one candidate: the base
// score multiplied by the taste-profile interest boost.
func (s *Scorer) ScoreWithInterest(vc *ViewerContext, item *models.ContentItem, source CandidateSource) float64 {
	return s.Score(vc, item, source) * s.InterestBoost(vc.Profile, item)
}

// SortCandidates orders candidates deterministically: unviewed before viewed,
// then score descending, then published time descending, then item ID
// descending. Equal inputs always produce equal output order.
func SortCandidates(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Viewed != b.Viewed {
			return !a.Viewed
		}
		if !almostEqual(a.Score, b.Score) {
			return a.Score > b.Score
		}
		if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
			return a.Item.CreatedAt.After(b.Item.CreatedAt)
		}
		return a.Item.ID > b.Item.ID
	})
}

// almostEqual compares scores with a relative epsilon so floating-point noise
// from differing accumulation orders cannot reorder ties.
func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*1e-12
}
