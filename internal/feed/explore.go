// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"context"
	"time"

	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
)

// ExploreFeed assembles one page of the explore surface: popular public items
// from outside the viewer's follow graph, personalized through the taste
// profile's interest boost and diversified by the per-author cap.
//
// A missing or unrebuildable profile degrades explore to popularity-only
// ranking; it never fails the request.
func (e *Engine) ExploreFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	start := time.Now()
	page, err := e.exploreFeed(ctx, req)
	metrics.RecordFeedRequest("explore", resultLabel(err), time.Since(start))
	return page, err
}

func (e *Engine) exploreFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	if err := e.validateRequest(&req); err != nil {
		return nil, err
	}

	vc, excl, err := e.viewerContext(ctx, req.ViewerID)
	if err != nil {
		return nil, err
	}

	vc.Profile = e.taste.ProfileFor(ctx, req.ViewerID)
	var profileVersion int64
	if vc.Profile != nil {
		profileVersion = vc.Profile.Version
	} else {
		logging.Debug().Str("viewer_id", req.ViewerID).Msg("Explore ranking without taste profile")
	}

	candidates, err := e.fetch.explorePool(ctx, vc, excl, req.Kinds)
	if err != nil {
		return nil, err
	}

	if err := e.markViewed(ctx, vc, candidates); err != nil {
		logging.Err(err).Str("viewer_id", req.ViewerID).Msg("Viewed lookup failed, skipping demotion")
	}

	for i := range candidates {
		candidates[i].Score = e.scorer.ScoreWithInterest(vc, &candidates[i].Item, candidates[i].Source)
	}
	SortCandidates(candidates)
	metrics.RecordCandidatePool("explore", len(candidates))

	capped := CapByAuthor(candidates, e.cfg.Explore.MaxPerAuthor)
	return e.paginate(ctx, vc, capped, req, "explore", profileVersion)
}
