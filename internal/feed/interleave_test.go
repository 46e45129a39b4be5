// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"fmt"
	"testing"

	"github.com/rookery-social/rookery/internal/models"
)

func mkCandidates(kinds ...models.ContentKind) []ScoredCandidate {
	out := make([]ScoredCandidate, len(kinds))
	for i, k := range kinds {
		out[i] = ScoredCandidate{
			Item: models.ContentItem{ID: fmt.Sprintf("item-%03d", i), Kind: k},
		}
	}
	return out
}

func kindsOf(candidates []ScoredCandidate) string {
	s := ""
	for _, c := range candidates {
		if c.Item.Kind == models.KindReel {
			s += "R"
		} else {
			s += "P"
		}
	}
	return s
}

func TestInterleavePattern(t *testing.T) {
	// 10 posts and 4 reels, pageSize 10, run 3, share 0.3 -> quota 3/window.
	kinds := make([]models.ContentKind, 0, 14)
	for i := 0; i < 10; i++ {
		kinds = append(kinds, models.KindPost)
	}
	for i := 0; i < 4; i++ {
		kinds = append(kinds, models.KindReel)
	}

	got := Interleave(mkCandidates(kinds...), 10, 3, 0.3)

	// First window: three posts, a reel, three posts, a reel, two posts.
	// Second window: remaining two posts then the leftover reels.
	want := "PPPRPPPRPP" + "PPRR"
	if kindsOf(got) != want {
		t.Errorf("pattern = %s, want %s", kindsOf(got), want)
	}
}

func TestInterleaveQuotaPerWindow(t *testing.T) {
	// Plenty of both kinds: no window may exceed its reel quota while posts
	// remain available.
	kinds := make([]models.ContentKind, 0, 60)
	for i := 0; i < 30; i++ {
		kinds = append(kinds, models.KindPost)
	}
	for i := 0; i < 30; i++ {
		kinds = append(kinds, models.KindReel)
	}

	pageSize := 10
	got := Interleave(mkCandidates(kinds...), pageSize, 3, 0.3)

	// The first three windows are fully supplied with posts, so the reel
	// quota binds there. Later windows drain the leftover reels.
	for w := 0; w < 3; w++ {
		start := w * pageSize
		reels := 0
		for _, c := range got[start : start+pageSize] {
			if c.Item.Kind == models.KindReel {
				reels++
			}
		}
		if reels > 3 {
			t.Errorf("window %d has %d reels, quota is 3", w, reels)
		}
	}
}

func TestInterleavePreservesOrderWithinKind(t *testing.T) {
	kinds := []models.ContentKind{
		models.KindReel, models.KindPost, models.KindReel, models.KindPost,
		models.KindPost, models.KindPost, models.KindReel,
	}
	got := Interleave(mkCandidates(kinds...), 4, 3, 0.3)

	lastPost, lastReel := "", ""
	for _, c := range got {
		if c.Item.Kind == models.KindReel {
			if c.Item.ID <= lastReel {
				t.Fatalf("reel order broken: %s after %s", c.Item.ID, lastReel)
			}
			lastReel = c.Item.ID
		} else {
			if c.Item.ID <= lastPost {
				t.Fatalf("post order broken: %s after %s", c.Item.ID, lastPost)
			}
			lastPost = c.Item.ID
		}
	}
}

func TestInterleaveAllReels(t *testing.T) {
	kinds := make([]models.ContentKind, 12)
	for i := range kinds {
		kinds[i] = models.KindReel
	}

	got := Interleave(mkCandidates(kinds...), 5, 3, 0.3)
	if len(got) != 12 {
		t.Fatalf("all-reel pool shrank: got %d items, want 12", len(got))
	}
	for i, c := range got {
		if want := fmt.Sprintf("item-%03d", i); c.Item.ID != want {
			t.Errorf("position %d = %s, want %s", i, c.Item.ID, want)
		}
	}
}

func TestInterleaveNoReels(t *testing.T) {
	kinds := make([]models.ContentKind, 7)
	for i := range kinds {
		kinds[i] = models.KindPost
	}

	got := Interleave(mkCandidates(kinds...), 5, 3, 0.3)
	if kindsOf(got) != "PPPPPPP" {
		t.Errorf("no-reel pool reordered: %s", kindsOf(got))
	}
}

func TestInterleaveMinimumQuota(t *testing.T) {
	// pageSize 2 with share 0.3 floors the quota at 1 per window.
	got := Interleave(
		mkCandidates(models.KindPost, models.KindPost, models.KindPost, models.KindPost,
			models.KindReel, models.KindReel),
		2, 3, 0.3,
	)
	reels := 0
	for _, c := range got {
		if c.Item.Kind == models.KindReel {
			reels++
		}
	}
	if reels != 2 {
		t.Errorf("reels lost during interleave: got %d, want 2", reels)
	}
}

func TestInterleavePaginationConsistency(t *testing.T) {
	// Slicing the interleaved full list must equal interleaving and taking
	// the same slice again: page N+1 continues page N exactly.
	kinds := make([]models.ContentKind, 0, 40)
	for i := 0; i < 28; i++ {
		kinds = append(kinds, models.KindPost)
	}
	for i := 0; i < 12; i++ {
		kinds = append(kinds, models.KindReel)
	}

	full := Interleave(mkCandidates(kinds...), 10, 3, 0.3)
	again := Interleave(mkCandidates(kinds...), 10, 3, 0.3)

	if len(full) != 40 || len(again) != 40 {
		t.Fatalf("items lost: %d / %d, want 40", len(full), len(again))
	}
	for i := range full {
		if full[i].Item.ID != again[i].Item.ID {
			t.Fatalf("unstable interleave at %d: %s vs %s", i, full[i].Item.ID, again[i].Item.ID)
		}
	}

	seen := map[string]struct{}{}
	for _, c := range full {
		if _, dup := seen[c.Item.ID]; dup {
			t.Fatalf("duplicate item %s in interleaved output", c.Item.ID)
		}
		seen[c.Item.ID] = struct{}{}
	}
}

func TestInterleaveEmptyAndDegenerate(t *testing.T) {
	if got := Interleave(nil, 10, 3, 0.3); len(got) != 0 {
		t.Errorf("nil input produced %d items", len(got))
	}
	in := mkCandidates(models.KindPost, models.KindReel)
	if got := Interleave(in, 0, 3, 0.3); len(got) != 2 {
		t.Errorf("zero page size dropped items: %d", len(got))
	}
}
