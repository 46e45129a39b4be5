// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"math"
	"testing"
	"time"

	"github.com/rookery-social/rookery/internal/models"
)

func TestSignalBase(t *testing.T) {
	cfg := DefaultConfig().Taste

	video := models.ContentItem{PrimaryVideoDurationMs: 8000}
	noVideo := models.ContentItem{}

	tests := []struct {
		name string
		rec  models.InteractionRecord
		item models.ContentItem
		want float64
	}{
		{"save", models.InteractionRecord{Type: models.InteractionSave}, video, 5},
		{"repost", models.InteractionRecord{Type: models.InteractionRepost}, video, 4},
		{"like", models.InteractionRecord{Type: models.InteractionLike}, video, 3},
		{"share", models.InteractionRecord{Type: models.InteractionShare}, video, 3},
		{
			"half-watched view",
			models.InteractionRecord{Type: models.InteractionView, WatchedDurationMs: 4000},
			video,
			1.0, // 2 * 4000/8000
		},
		{
			"overwatched view capped",
			models.InteractionRecord{Type: models.InteractionView, WatchedDurationMs: 40000},
			video,
			2.5,
		},
		{
			"negative watch floored",
			models.InteractionRecord{Type: models.InteractionView, WatchedDurationMs: -100},
			video,
			0,
		},
		{
			"view of non-video uses reference duration",
			models.InteractionRecord{Type: models.InteractionView, WatchedDurationMs: 8000},
			noVideo,
			2.0, // 2 * 8000/8000
		},
		{"hide contributes nothing", models.InteractionRecord{Type: models.InteractionHide}, video, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signalBase(cfg, tt.rec, &tt.item)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("signalBase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildProfile(t *testing.T) {
	cfg := DefaultConfig().Taste
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	items := map[string]models.ContentItem{
		"fresh": {
			ID:       "fresh",
			AuthorID: "alice",
			Kind:     models.KindPost,
			Hashtags: []string{"cats", "pets"},
			Topics:   []string{"animals"},
		},
		"old": {
			ID:       "old",
			AuthorID: "alice",
			Kind:     models.KindPost,
		},
	}

	records := []models.InteractionRecord{
		{ViewerID: "v", ItemID: "fresh", Type: models.InteractionSave, OccurredAt: now},
		{ViewerID: "v", ItemID: "old", Type: models.InteractionSave, OccurredAt: now.Add(-14 * 24 * time.Hour)},
	}

	p := BuildProfile(cfg, "v", records, items, now)

	// Fresh save contributes 5, the 14-day-old one 5*e^-1.
	decayed := 5 * math.Exp(-1)
	if got := p.Authors["alice"]; math.Abs(got-(5+decayed)) > 1e-9 {
		t.Errorf("author weight = %v, want %v", got, 5+decayed)
	}
	if got := p.Kinds["post"]; math.Abs(got-(5+decayed)) > 1e-9 {
		t.Errorf("kind weight = %v, want %v", got, 5+decayed)
	}
	if got := p.Hashtags["cats"]; math.Abs(got-5) > 1e-9 {
		t.Errorf("hashtag weight = %v, want 5", got)
	}
	if got := p.Topics["animals"]; math.Abs(got-5) > 1e-9 {
		t.Errorf("topic weight = %v, want 5", got)
	}
	if p.ViewerID != "v" || !p.RebuiltAt.Equal(now) {
		t.Errorf("profile metadata wrong: %+v", p)
	}
}

func TestBuildProfileSkipsUnknownAndDeleted(t *testing.T) {
	cfg := DefaultConfig().Taste
	now := time.Now()
	deleted := now.Add(-time.Hour)

	items := map[string]models.ContentItem{
		"gone": {ID: "gone", AuthorID: "alice", Kind: models.KindPost, DeletedAt: &deleted},
	}
	records := []models.InteractionRecord{
		{ItemID: "gone", Type: models.InteractionSave, OccurredAt: now},
		{ItemID: "never-existed", Type: models.InteractionSave, OccurredAt: now},
	}

	p := BuildProfile(cfg, "v", records, items, now)
	if len(p.Authors) != 0 {
		t.Errorf("deleted/unknown items contributed: %v", p.Authors)
	}
}

func TestBuildProfileTagLimits(t *testing.T) {
	cfg := DefaultConfig().Taste
	now := time.Now()

	tags := make([]string, cfg.HashtagLimit+3)
	for i := range tags {
		tags[i] = string(rune('a' + i))
	}

	items := map[string]models.ContentItem{
		"i": {ID: "i", AuthorID: "alice", Kind: models.KindPost, Hashtags: tags},
	}
	records := []models.InteractionRecord{
		{ItemID: "i", Type: models.InteractionLike, OccurredAt: now},
	}

	p := BuildProfile(cfg, "v", records, items, now)
	if len(p.Hashtags) != cfg.HashtagLimit {
		t.Errorf("got %d hashtag weights, want %d", len(p.Hashtags), cfg.HashtagLimit)
	}
	if _, ok := p.Hashtags[tags[cfg.HashtagLimit]]; ok {
		t.Errorf("tag past the limit received weight")
	}
}

func TestBuildProfileDeterministic(t *testing.T) {
	cfg := DefaultConfig().Taste
	now := time.Now()

	items := map[string]models.ContentItem{}
	records := make([]models.InteractionRecord, 0, 50)
	for i := 0; i < 50; i++ {
		id := string(rune('a' + i%10))
		items[id] = models.ContentItem{
			ID: id, AuthorID: "author-" + id, Kind: models.KindReel,
			Hashtags: []string{"h" + id},
		}
		records = append(records, models.InteractionRecord{
			ItemID: id, Type: models.InteractionLike,
			OccurredAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	a := BuildProfile(cfg, "v", records, items, now)
	b := BuildProfile(cfg, "v", records, items, now)

	for k, w := range a.Authors {
		if b.Authors[k] != w {
			t.Fatalf("non-deterministic author weight for %s: %v vs %v", k, w, b.Authors[k])
		}
	}
	for k, w := range a.Hashtags {
		if b.Hashtags[k] != w {
			t.Fatalf("non-deterministic hashtag weight for %s: %v vs %v", k, w, b.Hashtags[k])
		}
	}
}
