// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import "github.com/rookery-social/rookery/internal/models"

// Interleave rearranges a ranked candidate list into the home-feed kind
// pattern: runs of non-reel items punctuated by single reels, with a reel
// quota per page-sized window of max(1, floor(pageSize*reelShare)).
//
// The function operates on the whole ranked list, window by window, so that
// slicing the result into consecutive pages yields the same items as
// assembling each page independently. Relative order within each kind is
// preserved.
//
// When one kind runs dry the pattern degrades gracefully: remaining non-reels
// fill the window first, and a window is topped up with reels past its quota
// only when no non-reels are left at all. An all-reel pool therefore still
// produces a full feed.
func Interleave(ranked []ScoredCandidate, pageSize, run int, reelShare float64) []ScoredCandidate {
	if len(ranked) == 0 || pageSize <= 0 || run <= 0 {
		return ranked
	}

	nonReels := make([]ScoredCandidate, 0, len(ranked))
	reels := make([]ScoredCandidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Item.Kind == models.KindReel {
			reels = append(reels, c)
		} else {
			nonReels = append(nonReels, c)
		}
	}

	quotaPerWindow := int(float64(pageSize) * reelShare)
	if quotaPerWindow < 1 {
		quotaPerWindow = 1
	}

	out := make([]ScoredCandidate, 0, len(ranked))
	ni, ri := 0, 0

	for ni < len(nonReels) || ri < len(reels) {
		window := 0
		quota := quotaPerWindow
		sinceReel := 0

		for window < pageSize && (ni < len(nonReels) || ri < len(reels)) {
			takeReel := false
			switch {
			case ni >= len(nonReels):
				// Only reels left; the quota no longer applies.
				takeReel = true
			case ri >= len(reels) || quota <= 0:
				takeReel = false
			case sinceReel >= run:
				takeReel = true
			}

			if takeReel {
				out = append(out, reels[ri])
				ri++
				quota--
				sinceReel = 0
			} else {
				out = append(out, nonReels[ni])
				ni++
				sinceReel++
			}
			window++
		}
	}

	return out
}
