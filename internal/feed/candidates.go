// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/models"
)

// retriever fans out candidate queries to the content store and merges the
// pools. Retrieval never scores; it only bounds what the scorer sees.
type retriever struct {
	content ContentSource
	home    HomeConfig
	explore ExploreConfig
}

// exclusions is the per-request negative space: items and authors that must
// never enter a candidate pool.
type exclusions struct {
	// Items the viewer hid or reported.
	ItemIDs map[string]struct{}
	// Authors in the bidirectional block set.
	AuthorIDs map[string]struct{}
}

// homePool retrieves the three home-feed pools concurrently and merges them.
// Duplicates across pools keep the strongest source: own over followed over
// explore. kinds restricts every pool; poolBudget is the per-source fetch
// limit, already capped by configuration.
func (r *retriever) homePool(ctx context.Context, vc *ViewerContext, excl exclusions, kinds []models.ContentKind, poolBudget int) ([]ScoredCandidate, error) {
	followeeIDs := make([]string, 0, len(vc.Followees))
	for id := range vc.Followees {
		followeeIDs = append(followeeIDs, id)
	}

	var own, followed, explore []models.ContentItem

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := r.content.QueryItems(gctx, ContentQuery{
			AuthorIDs:      []string{vc.ViewerID},
			Kinds:          kinds,
			Visibilities:   []models.Visibility{models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityPrivate},
			ExcludeItemIDs: excl.ItemIDs,
			OrderBy:        OrderRecency,
			Limit:          poolBudget,
		})
		if err != nil {
			return fmt.Errorf("own pool: %w", err)
		}
		own = items
		return nil
	})

	if len(followeeIDs) > 0 {
		g.Go(func() error {
			items, err := r.content.QueryItems(gctx, ContentQuery{
				AuthorIDs:        followeeIDs,
				ExcludeAuthorIDs: excl.AuthorIDs,
				Kinds:            kinds,
				Visibilities:     []models.Visibility{models.VisibilityPublic, models.VisibilityFollowers},
				ExcludeItemIDs:   excl.ItemIDs,
				OrderBy:          OrderRecency,
				Limit:            poolBudget,
			})
			if err != nil {
				return fmt.Errorf("followed pool: %w", err)
			}
			followed = items
			return nil
		})
	}

	g.Go(func() error {
		items, err := r.exploreQuery(gctx, vc, excl, kinds, vc.Now.Add(-r.home.ExploreWindow), poolBudget)
		if err != nil {
			return fmt.Errorf("explore pool: %w", err)
		}
		explore = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.FeedCandidatesBySource.WithLabelValues(string(SourceOwn)).Add(float64(len(own)))
	metrics.FeedCandidatesBySource.WithLabelValues(string(SourceFollowed)).Add(float64(len(followed)))
	metrics.FeedCandidatesBySource.WithLabelValues(string(SourceExplore)).Add(float64(len(explore)))

	return mergePools(
		pool{items: own, source: SourceOwn},
		pool{items: followed, source: SourceFollowed},
		pool{items: explore, source: SourceExplore},
	), nil
}

// followingPool retrieves the chronological following-feed pool: followed
// authors only, no explore mixing, no own items.
func (r *retriever) followingPool(ctx context.Context, vc *ViewerContext, excl exclusions, kinds []models.ContentKind, poolBudget int) ([]ScoredCandidate, error) {
	if len(vc.Followees) == 0 {
		return nil, nil
	}

	followeeIDs := make([]string, 0, len(vc.Followees))
	for id := range vc.Followees {
		followeeIDs = append(followeeIDs, id)
	}

	items, err := r.content.QueryItems(ctx, ContentQuery{
		AuthorIDs:        followeeIDs,
		ExcludeAuthorIDs: excl.AuthorIDs,
		Kinds:            kinds,
		Visibilities:     []models.Visibility{models.VisibilityPublic, models.VisibilityFollowers},
		ExcludeItemIDs:   excl.ItemIDs,
		OrderBy:          OrderRecency,
		Limit:            poolBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("followed pool: %w", err)
	}

	metrics.FeedCandidatesBySource.WithLabelValues(string(SourceFollowed)).Add(float64(len(items)))
	return mergePools(pool{items: items, source: SourceFollowed}), nil
}

// explorePool retrieves the standalone explore-surface pool.
func (r *retriever) explorePool(ctx context.Context, vc *ViewerContext, excl exclusions, kinds []models.ContentKind) ([]ScoredCandidate, error) {
	items, err := r.exploreQuery(ctx, vc, excl, kinds, vc.Now.Add(-r.explore.Window), r.explore.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("explore pool: %w", err)
	}

	metrics.FeedCandidatesBySource.WithLabelValues(string(SourceExplore)).Add(float64(len(items)))
	return mergePools(pool{items: items, source: SourceExplore}), nil
}

// exploreQuery fetches popular public items from outside the follow graph.
// The viewer's own items and followed authors are excluded here so explore
// never duplicates what the other pools already cover.
func (r *retriever) exploreQuery(ctx context.Context, vc *ViewerContext, excl exclusions, kinds []models.ContentKind, publishedAfter time.Time, limit int) ([]models.ContentItem, error) {
	excludeAuthors := make(map[string]struct{}, len(vc.Followees)+len(excl.AuthorIDs)+1)
	excludeAuthors[vc.ViewerID] = struct{}{}
	for id := range vc.Followees {
		excludeAuthors[id] = struct{}{}
	}
	for id := range excl.AuthorIDs {
		excludeAuthors[id] = struct{}{}
	}

	return r.content.QueryItems(ctx, ContentQuery{
		ExcludeAuthorIDs: excludeAuthors,
		Kinds:            kinds,
		Visibilities:     []models.Visibility{models.VisibilityPublic},
		PublishedAfter:   publishedAfter,
		ExcludeItemIDs:   excl.ItemIDs,
		OrderBy:          OrderPopularity,
		Limit:            limit,
	})
}

type pool struct {
	items  []models.ContentItem
	source CandidateSource
}

// mergePools flattens pools into unscored candidates, deduplicating by item
// ID. Pools are applied in argument order, so earlier pools win the source
// attribution of a duplicate. Viewed flags are filled in afterwards, once the
// candidate set is known.
func mergePools(pools ...pool) []ScoredCandidate {
	total := 0
	for _, p := range pools {
		total += len(p.items)
	}

	seen := make(map[string]struct{}, total)
	out := make([]ScoredCandidate, 0, total)
	for _, p := range pools {
		for _, item := range p.items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, ScoredCandidate{Item: item, Source: p.source})
		}
	}
	return out
}
