// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/models"
)

// TasteBuilder owns taste-profile lifecycle: lazy rebuild on read when the
// stored profile is missing or older than the TTL, plus the background
// refresh used by the janitor. Rebuilds go through a circuit breaker so a
// struggling ledger degrades explore ranking instead of failing requests.
type TasteBuilder struct {
	cfg      TasteConfig
	ledger   InteractionLedger
	content  ContentSource
	profiles ProfileStore
	breaker  *gobreaker.CircuitBreaker[*models.TasteProfile]
	clock    func() time.Time
}

// NewTasteBuilder creates a taste builder over the given collaborators.
func NewTasteBuilder(cfg TasteConfig, ledger InteractionLedger, content ContentSource, profiles ProfileStore) *TasteBuilder {
	tb := &TasteBuilder{
		cfg:      cfg,
		ledger:   ledger,
		content:  content,
		profiles: profiles,
		clock:    time.Now,
	}
	tb.breaker = gobreaker.NewCircuitBreaker[*models.TasteProfile](gobreaker.Settings{
		Name:        "taste-rebuild",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Taste rebuild circuit breaker state change")
			metrics.TasteBreakerState.Set(float64(to))
		},
	})
	return tb
}

// ProfileFor returns the viewer's taste profile, rebuilding it synchronously
// when absent or stale. A stale profile that fails to rebuild is returned
// as-is; a missing profile that fails to rebuild yields (nil, nil) so the
// caller can rank without the interest boost. Hard errors are never
// propagated from here: a feed request must not fail because taste data is
// unavailable.
func (tb *TasteBuilder) ProfileFor(ctx context.Context, viewerID string) *models.TasteProfile {
	now := tb.clock()

	existing, err := tb.profiles.GetProfile(ctx, viewerID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		logging.Err(err).Str("viewer_id", viewerID).Msg("Taste profile read failed")
		existing = nil
	}
	if existing != nil && !existing.IsStale(now, tb.cfg.StalenessTTL) {
		metrics.TasteProfileReads.WithLabelValues("fresh").Inc()
		return existing
	}

	rebuilt, err := tb.breaker.Execute(func() (*models.TasteProfile, error) {
		return tb.Rebuild(ctx, viewerID)
	})
	if err != nil {
		metrics.TasteRebuilds.WithLabelValues("error").Inc()
		logging.Err(err).Str("viewer_id", viewerID).Msg("Taste rebuild failed, serving without fresh profile")
		return existing
	}

	metrics.TasteRebuilds.WithLabelValues("ok").Inc()
	metrics.TasteProfileReads.WithLabelValues("rebuilt").Inc()
	return rebuilt
}

// Rebuild recomputes the viewer's profile from recent ledger history and
// persists the result. The computation is deterministic for a fixed ledger
// snapshot and rebuild instant, so racing rebuilds of one viewer converge.
func (tb *TasteBuilder) Rebuild(ctx context.Context, viewerID string) (*models.TasteProfile, error) {
	start := time.Now()
	defer func() {
		metrics.TasteRebuildDuration.Observe(time.Since(start).Seconds())
	}()

	now := tb.clock()
	since := now.Add(-tb.cfg.HistoryWindow)

	records, err := tb.ledger.ListRecent(ctx, viewerID, models.TasteSignalTypes, since, tb.cfg.MaxRecords)
	if err != nil {
		return nil, fmt.Errorf("list interactions for %s: %w", viewerID, err)
	}

	itemIDs := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ItemID]; ok {
			continue
		}
		seen[r.ItemID] = struct{}{}
		itemIDs = append(itemIDs, r.ItemID)
	}

	items, err := tb.content.ItemsByID(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve interacted items for %s: %w", viewerID, err)
	}

	profile := BuildProfile(tb.cfg, viewerID, records, items, now)

	prevVersion := int64(0)
	if prev, err := tb.profiles.GetProfile(ctx, viewerID); err == nil {
		prevVersion = prev.Version
	}
	profile.Version = prevVersion + 1

	if err := tb.profiles.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("persist profile for %s: %w", viewerID, err)
	}
	return profile, nil
}

// RefreshStale rebuilds profiles for recently active viewers whose stored
// profile is stale or missing. It is the janitor's entry point and returns
// the number of profiles rebuilt.
func (tb *TasteBuilder) RefreshStale(ctx context.Context, batchLimit int) (int, error) {
	now := tb.clock()

	viewerIDs, err := tb.ledger.ActiveViewerIDs(ctx, now.Add(-tb.cfg.StalenessTTL), batchLimit)
	if err != nil {
		return 0, fmt.Errorf("list active viewers: %w", err)
	}

	rebuilt := 0
	for _, viewerID := range viewerIDs {
		if ctx.Err() != nil {
			return rebuilt, ctx.Err()
		}

		existing, err := tb.profiles.GetProfile(ctx, viewerID)
		if err == nil && !existing.IsStale(now, tb.cfg.StalenessTTL) {
			continue
		}
		if _, err := tb.Rebuild(ctx, viewerID); err != nil {
			logging.Err(err).Str("viewer_id", viewerID).Msg("Background taste rebuild failed")
			continue
		}
		rebuilt++
	}
	return rebuilt, nil
}

// BuildProfile computes a taste profile from an interaction history and the
// items it references. It is a pure function of its inputs: no I/O, no
// randomness, no reliance on map iteration order (weights are accumulated by
// addition, which commutes).
//
// Each record contributes base(type) * e^(-ageDays/decayDays) to the author
// and kind weights of its item, and to the item's first few hashtags and
// topics. Records referencing unknown or deleted items are skipped. Hide and
// report signals never reach this function.
func BuildProfile(cfg TasteConfig, viewerID string, records []models.InteractionRecord, items map[string]models.ContentItem, now time.Time) *models.TasteProfile {
	profile := &models.TasteProfile{
		ViewerID:  viewerID,
		Hashtags:  map[string]float64{},
		Topics:    map[string]float64{},
		Authors:   map[string]float64{},
		Kinds:     map[string]float64{},
		RebuiltAt: now,
	}

	for _, r := range records {
		item, ok := items[r.ItemID]
		if !ok || item.IsDeleted() {
			continue
		}

		base := signalBase(cfg, r, &item)
		if base <= 0 {
			continue
		}

		ageDays := now.Sub(r.OccurredAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		w := base * math.Exp(-ageDays/cfg.DecayDays)

		profile.Authors[item.AuthorID] += w
		profile.Kinds[string(item.Kind)] += w
		for i, tag := range item.Hashtags {
			if i >= cfg.HashtagLimit {
				break
			}
			profile.Hashtags[tag] += w
		}
		for i, topic := range item.Topics {
			if i >= cfg.TopicLimit {
				break
			}
			profile.Topics[topic] += w
		}
	}

	profile.Truncate()
	return profile
}

// signalBase returns the undecayed weight of one interaction. Views scale
// with watch completion against the item's video duration, falling back to
// the configured reference duration for non-video items.
func signalBase(cfg TasteConfig, r models.InteractionRecord, item *models.ContentItem) float64 {
	switch r.Type {
	case models.InteractionSave:
		return cfg.SaveBase
	case models.InteractionRepost:
		return cfg.RepostBase
	case models.InteractionLike:
		return cfg.LikeBase
	case models.InteractionShare:
		return cfg.ShareBase
	case models.InteractionView:
		ref := item.PrimaryVideoDurationMs
		if ref <= 0 {
			ref = cfg.DefaultReferenceDurationMs
		}
		completion := float64(r.WatchedDurationMs) / float64(ref)
		base := cfg.ViewBaseFactor * completion
		if base < 0 {
			return 0
		}
		if base > cfg.ViewBaseCap {
			return cfg.ViewBaseCap
		}
		return base
	default:
		return 0
	}
}
