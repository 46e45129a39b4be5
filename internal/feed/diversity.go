// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import "github.com/rookery-social/rookery/internal/metrics"

// CapByAuthor walks a ranked candidate list and admits at most maxPerAuthor
// items per author, keeping the highest-ranked ones. Later candidates move up
// to fill the vacated positions, so the output stays densely packed and in
// rank order.
func CapByAuthor(ranked []ScoredCandidate, maxPerAuthor int) []ScoredCandidate {
	if maxPerAuthor <= 0 || len(ranked) == 0 {
		return ranked
	}

	counts := make(map[string]int, len(ranked))
	out := make([]ScoredCandidate, 0, len(ranked))
	evicted := 0
	for _, c := range ranked {
		if counts[c.Item.AuthorID] >= maxPerAuthor {
			evicted++
			continue
		}
		counts[c.Item.AuthorID]++
		out = append(out, c)
	}

	if evicted > 0 {
		metrics.FeedDiversityEvictions.Add(float64(evicted))
	}
	return out
}
