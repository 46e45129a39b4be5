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

func TestFreshness(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)

	tests := []struct {
		name     string
		ageHours float64
		want     float64
	}{
		{"zero age", 0, 1.0},
		{"half life", 12, 0.5},
		{"double half life", 24, 1.0 / 3.0},
		{"negative age treated as zero", -5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Freshness(tt.ageHours)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Freshness(%v) = %v, want %v", tt.ageHours, got, tt.want)
			}
		})
	}

	// Monotonic decay.
	prev := s.Freshness(0)
	for age := 1.0; age <= 168; age += 1 {
		cur := s.Freshness(age)
		if cur >= prev {
			t.Fatalf("freshness not strictly decreasing at age %v: %v >= %v", age, cur, prev)
		}
		prev = cur
	}
}

func TestEngagementScore(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)

	tests := []struct {
		name     string
		counters models.EngagementCounters
		want     float64
	}{
		{"zero counters", models.EngagementCounters{}, 0},
		{"hearts only", models.EngagementCounters{Hearts: 10}, 20},
		{
			"all counters",
			models.EngagementCounters{
				Hearts: 1, Comments: 1, Saves: 1, Shares: 1,
				Reposts: 1, Views: 10, Impressions: 10,
			},
			2 + 3 + 4 + 3 + 3 + 3 + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.EngagementScore(tt.counters)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EngagementScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreFollowedBoost(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	item := models.ContentItem{
		ID:          "item-1",
		AuthorID:    "author-1",
		PublishedAt: now.Add(-6 * time.Hour),
		Counters:    models.EngagementCounters{Hearts: 50},
	}

	vc := &ViewerContext{
		ViewerID:  "viewer-1",
		Followees: map[string]struct{}{"author-1": {}},
		Now:       now,
	}

	base := s.Score(&ViewerContext{ViewerID: "viewer-1", Now: now}, &item, SourceExplore)
	boosted := s.Score(vc, &item, SourceFollowed)

	if math.Abs(boosted-base*1.3) > 1e-9 {
		t.Errorf("followed boost: got %v, want %v", boosted, base*1.3)
	}

	// Own items never receive the follow boost, even if the viewer somehow
	// follows themselves.
	own := item
	own.AuthorID = "viewer-1"
	vcSelf := &ViewerContext{
		ViewerID:  "viewer-1",
		Followees: map[string]struct{}{"viewer-1": {}},
		Now:       now,
	}
	if got := s.Score(vcSelf, &own, SourceOwn); math.Abs(got-base) > 1e-9 {
		t.Errorf("own source boosted: got %v, want %v", got, base)
	}
}

func TestScoreMinAgeFloor(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)
	now := time.Now()

	justPublished := models.ContentItem{PublishedAt: now}
	future := models.ContentItem{PublishedAt: now.Add(1 * time.Minute)}

	vc := &ViewerContext{ViewerID: "v", Now: now}
	a := s.Score(vc, &justPublished, SourceExplore)
	b := s.Score(vc, &future, SourceExplore)
	if a != b {
		t.Errorf("age floor not applied: %v != %v", a, b)
	}
}

func TestQualityTiltFloor(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)
	now := time.Now()

	spammy := models.ContentItem{
		PublishedAt: now.Add(-time.Hour),
		SpamScore:   200, // tilt = 1 - 2 = -1, floored at 0
		Counters:    models.EngagementCounters{Hearts: 1000},
	}

	vc := &ViewerContext{ViewerID: "v", Now: now}
	if got := s.Score(vc, &spammy, SourceExplore); got != 0 {
		t.Errorf("spam tilt floor: got %v, want 0", got)
	}
}

func TestInterestBoost(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)

	profile := &models.TasteProfile{
		Authors:  map[string]float64{"author-1": 5},
		Kinds:    map[string]float64{"reel": 10},
		Hashtags: map[string]float64{"cats": 2, "dogs": 1},
		Topics:   map[string]float64{"pets": 3},
	}

	tests := []struct {
		name    string
		profile *models.TasteProfile
		item    models.ContentItem
		want    float64
	}{
		{
			name:    "nil profile yields exactly 1",
			profile: nil,
			item:    models.ContentItem{AuthorID: "author-1"},
			want:    1,
		},
		{
			name:    "no overlap yields 1",
			profile: profile,
			item:    models.ContentItem{AuthorID: "stranger", Kind: models.KindPost},
			want:    1,
		},
		{
			name:    "author, hashtag, topic accumulate",
			profile: profile,
			item: models.ContentItem{
				AuthorID: "author-1",
				Kind:     models.KindPost,
				Hashtags: []string{"cats"},
				Topics:   []string{"pets"},
			},
			// interest = 5*1.2 + 2 + 3 = 11; boost = 1 + 11/20
			want: 1.55,
		},
		{
			name:    "kind affinity contributes",
			profile: profile,
			item:    models.ContentItem{AuthorID: "stranger", Kind: models.KindReel},
			// interest = 10*0.4 = 4; boost = 1 + 4/20
			want: 1.2,
		},
		{
			name:    "strong overlap clamps at the cap",
			profile: profile,
			item: models.ContentItem{
				AuthorID: "author-1",
				Kind:     models.KindReel,
				Hashtags: []string{"cats", "dogs"},
				Topics:   []string{"pets"},
			},
			// interest = 5*1.2 + 10*0.4 + 2 + 1 + 3 = 16; 16/20 = 0.8 is
			// clamped to 0.6
			want: 1.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.InterestBoost(tt.profile, &tt.item)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InterestBoost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterestBoostCap(t *testing.T) {
	s := NewScorer(DefaultConfig().Scoring)

	strong := &models.TasteProfile{
		Authors: map[string]float64{"author-1": 1000},
	}
	item := models.ContentItem{AuthorID: "author-1"}
	if got := s.InterestBoost(strong, &item); math.Abs(got-1.6) > 1e-9 {
		t.Errorf("boost not capped: got %v, want 1.6", got)
	}
}

func TestInterestBoostTagLimits(t *testing.T) {
	cfg := DefaultConfig().Scoring
	s := NewScorer(cfg)

	// Weight on a tag past the hashtag limit must not contribute.
	tags := make([]string, 0, cfg.InterestHashtagLimit+1)
	for i := 0; i < cfg.InterestHashtagLimit; i++ {
		tags = append(tags, "filler")
	}
	tags = append(tags, "cats")

	profile := &models.TasteProfile{
		Hashtags: map[string]float64{"cats": 100},
	}
	item := models.ContentItem{Hashtags: tags}
	if got := s.InterestBoost(profile, &item); got != 1 {
		t.Errorf("tag past limit contributed: got %v, want 1", got)
	}
}

func TestSortCandidates(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id string, score float64, createdAt time.Time, viewed bool) ScoredCandidate {
		return ScoredCandidate{
			Item:   models.ContentItem{ID: id, CreatedAt: createdAt},
			Score:  score,
			Viewed: viewed,
		}
	}

	candidates := []ScoredCandidate{
		mk("a", 10, base, true),                   // viewed, demoted despite top score
		mk("b", 5, base, false),                   // highest unviewed score
		mk("c", 3, base.Add(time.Hour), false),    // tie on score with d, newer wins
		mk("d", 3, base, false),                   //
		mk("e", 3+1e-15, base, false),             // float noise, ties with d, ID breaks
		mk("f", 1, base, false),                   //
	}

	SortCandidates(candidates)

	gotIDs := make([]string, len(candidates))
	for i, c := range candidates {
		gotIDs[i] = c.Item.ID
	}

	// e vs d: scores tie under the relative epsilon, CreatedAt equal, so the
	// larger ID sorts first.
	want := []string{"b", "c", "e", "d", "f", "a"}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotIDs, want)
		}
	}
}

func TestSortCandidatesDeterministic(t *testing.T) {
	base := time.Now()
	build := func() []ScoredCandidate {
		out := make([]ScoredCandidate, 0, 20)
		for i := 0; i < 20; i++ {
			out = append(out, ScoredCandidate{
				Item:  models.ContentItem{ID: string(rune('a' + i)), CreatedAt: base},
				Score: float64(i % 4),
			})
		}
		return out
	}

	first := build()
	second := build()
	SortCandidates(first)
	SortCandidates(second)

	for i := range first {
		if first[i].Item.ID != second[i].Item.ID {
			t.Fatalf("non-deterministic order at %d: %s vs %s", i, first[i].Item.ID, second[i].Item.ID)
		}
	}
}
