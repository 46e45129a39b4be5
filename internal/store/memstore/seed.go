// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package memstore

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/models"
)

// Seed populates the store with deterministic development data: a small
// author graph, a few hundred posts and reels with plausible engagement, and
// interaction history for the first few viewers so taste profiles have
// something to chew on. The fixed RNG seed keeps dev feeds reproducible
// across restarts.
func Seed(s *Store, now time.Time) {
	rng := rand.New(rand.NewSource(7))

	hashtags := []string{"photography", "cooking", "travel", "gaming", "music", "diy", "fitness", "books", "film", "gardening"}
	topics := []string{"arts", "food", "outdoors", "tech", "wellness"}

	const authorCount = 24
	for i := 0; i < authorCount; i++ {
		id := fmt.Sprintf("user-%02d", i)
		s.PutAuthor(models.AuthorCard{
			ID:          id,
			DisplayName: fmt.Sprintf("Seed User %02d", i),
			Handle:      fmt.Sprintf("seed%02d", i),
		})
	}

	// Each user follows a handful of others, skewed toward lower IDs so
	// early users look like established accounts.
	for i := 0; i < authorCount; i++ {
		viewer := fmt.Sprintf("user-%02d", i)
		for n := 0; n < 5; n++ {
			target := rng.Intn(authorCount)
			if target == i {
				continue
			}
			s.Follow(viewer, fmt.Sprintf("user-%02d", target))
		}
	}

	const itemCount = 240
	itemIDs := make([]string, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		id := fmt.Sprintf("item-%04d", i)
		itemIDs = append(itemIDs, id)

		kind := models.KindPost
		var videoMs int64
		if rng.Intn(100) < 35 {
			kind = models.KindReel
			videoMs = int64(5000 + rng.Intn(55000))
		}

		ageHours := rng.Float64() * 24 * 28
		published := now.Add(-time.Duration(ageHours * float64(time.Hour)))

		s.PutItem(models.ContentItem{
			ID:          id,
			AuthorID:    fmt.Sprintf("user-%02d", rng.Intn(authorCount)),
			Kind:        kind,
			Visibility:  models.VisibilityPublic,
			Status:      models.StatusPublished,
			CreatedAt:   published,
			PublishedAt: published,
			Counters: models.EngagementCounters{
				Hearts:      int64(rng.Intn(400)),
				Comments:    int64(rng.Intn(60)),
				Saves:       int64(rng.Intn(80)),
				Shares:      int64(rng.Intn(40)),
				Reposts:     int64(rng.Intn(30)),
				Views:       int64(rng.Intn(5000)),
				Impressions: int64(rng.Intn(20000)),
			},
			QualityScore:           rng.Float64() * 10,
			SpamScore:              rng.Float64() * 3,
			Hashtags:               pickTags(rng, hashtags, 1+rng.Intn(4)),
			Topics:                 pickTags(rng, topics, 1+rng.Intn(2)),
			PrimaryVideoDurationMs: videoMs,
		})
	}

	// Interaction history for the first few viewers.
	signalTypes := []models.InteractionType{
		models.InteractionView, models.InteractionView, models.InteractionView,
		models.InteractionLike, models.InteractionLike,
		models.InteractionSave, models.InteractionShare, models.InteractionRepost,
	}
	for i := 0; i < 6; i++ {
		viewer := fmt.Sprintf("user-%02d", i)
		for n := 0; n < 80; n++ {
			rec := models.InteractionRecord{
				ViewerID:   viewer,
				ItemID:     itemIDs[rng.Intn(len(itemIDs))],
				Type:       signalTypes[rng.Intn(len(signalTypes))],
				OccurredAt: now.Add(-time.Duration(rng.Intn(21*24)) * time.Hour),
			}
			if rec.Type == models.InteractionView {
				rec.WatchedDurationMs = int64(rng.Intn(30000))
			}
			s.AddInteraction(rec)
		}
	}

	logging.Info().
		Int("authors", authorCount).
		Int("items", itemCount).
		Msg("Seeded in-memory store with development data")
}

func pickTags(rng *rand.Rand, pool []string, n int) []string {
	out := make([]string, 0, n)
	seen := map[int]struct{}{}
	for len(out) < n && len(seen) < len(pool) {
		idx := rng.Intn(len(pool))
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, pool[idx])
	}
	return out
}
