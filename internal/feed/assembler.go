// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/models"
)

// Dependencies bundles the collaborators an Engine needs. All fields are
// required except Engagement, which only impression recording uses.
type Dependencies struct {
	Content     ContentSource
	Ledger      InteractionLedger
	Graph       SocialGraph
	Authors     AuthorDirectory
	Profiles    ProfileStore
	Impressions ImpressionStore
	Engagement  EngagementSink
}

// Engine is the feed ranking engine. It is stateless between requests and
// safe for concurrent use.
type Engine struct {
	cfg    Config
	deps   Dependencies
	scorer *Scorer
	fetch  *retriever
	taste  *TasteBuilder
	clock  func() time.Time
}

// NewEngine creates a feed engine. The configuration must already be
// validated.
func NewEngine(cfg Config, deps Dependencies) *Engine {
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		scorer: NewScorer(cfg.Scoring),
		fetch: &retriever{
			content: deps.Content,
			home:    cfg.Home,
			explore: cfg.Explore,
		},
		taste: NewTasteBuilder(cfg.Taste, deps.Ledger, deps.Content, deps.Profiles),
		clock: time.Now,
	}
}

// Taste exposes the engine's taste builder for the background janitor.
func (e *Engine) Taste() *TasteBuilder {
	return e.taste
}

// FeedRequest identifies one page of one viewer's feed.
type FeedRequest struct {
	ViewerID string
	Page     int
	PageSize int

	// Kinds restricts the feed to these content kinds. Empty means all
	// kinds. Interleaving only applies when both posts and reels are
	// requested.
	Kinds []models.ContentKind
}

// FeedItem is one hydrated entry of a feed page.
type FeedItem struct {
	// Item is the ranked content item.
	Item models.ContentItem `json:"item"`

	// Author is the display metadata of the item's author. Zero-valued if
	// the author directory had no record.
	Author models.AuthorCard `json:"author"`

	// Score is the computed ranking score, surfaced for debugging.
	Score float64 `json:"score"`

	// Source names the candidate pool that produced the item.
	Source CandidateSource `json:"source"`

	// Viewed reports whether the viewer has a view on record.
	Viewed bool `json:"viewed"`

	// Liked, Saved, and Reposted report the viewer's own interactions with
	// the item, resolved in one batch ledger lookup per page.
	Liked    bool `json:"liked"`
	Saved    bool `json:"saved"`
	Reposted bool `json:"reposted"`

	// Following reports whether the viewer follows the author. Omitted on
	// the explore surface, which excludes followed authors.
	Following bool `json:"following,omitempty"`
}

// FeedPage is one assembled page of a feed.
type FeedPage struct {
	Items    []FeedItem `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`

	// HasMore reports whether a subsequent page exists.
	HasMore bool `json:"has_more"`

	// CandidateCount is the size of the scored pool behind this page.
	CandidateCount int `json:"candidate_count"`

	// ProfileVersion is the taste profile version used for ranking, zero
	// when ranking ran without a profile.
	ProfileVersion int64 `json:"profile_version,omitempty"`
}

// HomeFeed assembles one page of the viewer's home feed: own items, followed
// authors, and an explore mix, scored, deduplicated, viewed-demoted,
// kind-interleaved, and paginated.
func (e *Engine) HomeFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	start := time.Now()
	page, err := e.rankedFeed(ctx, req, "home")
	metrics.RecordFeedRequest("home", resultLabel(err), time.Since(start))
	return page, err
}

// FollowingFeed assembles one page of the following-only feed: followed
// authors exclusively, no own items and no explore mixing, under the same
// scoring and interleaving rules as home.
func (e *Engine) FollowingFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	start := time.Now()
	page, err := e.rankedFeed(ctx, req, "following")
	metrics.RecordFeedRequest("following", resultLabel(err), time.Since(start))
	return page, err
}

// rankedFeed is the shared home/following assembly path. The full candidate
// pool is always scored, sorted, and interleaved before slicing, so page N+1
// is the exact continuation of page N for an unchanged pool.
func (e *Engine) rankedFeed(ctx context.Context, req FeedRequest, surface string) (*FeedPage, error) {
	if err := e.validateRequest(&req); err != nil {
		return nil, err
	}

	vc, excl, err := e.viewerContext(ctx, req.ViewerID)
	if err != nil {
		return nil, err
	}

	budget := req.Page * req.PageSize * e.cfg.Home.PoolOverfetch
	if budget > e.cfg.Home.MaxPoolSize {
		budget = e.cfg.Home.MaxPoolSize
	}

	var candidates []ScoredCandidate
	if surface == "following" {
		candidates, err = e.fetch.followingPool(ctx, vc, excl, req.Kinds, budget)
	} else {
		candidates, err = e.fetch.homePool(ctx, vc, excl, req.Kinds, budget)
	}
	if err != nil {
		return nil, err
	}

	if err := e.markViewed(ctx, vc, candidates); err != nil {
		// Viewed demotion is ranking polish, not correctness; serve
		// without it rather than fail the feed.
		logging.Err(err).Str("viewer_id", req.ViewerID).Msg("Viewed lookup failed, skipping demotion")
	}

	for i := range candidates {
		candidates[i].Score = e.scorer.Score(vc, &candidates[i].Item, candidates[i].Source)
	}
	SortCandidates(candidates)
	metrics.RecordCandidatePool(surface, len(candidates))

	ordered := candidates
	if requestsBothKinds(req.Kinds) {
		ordered = Interleave(candidates, req.PageSize, e.cfg.Home.InterleaveRun, e.cfg.Home.ReelShare)
	}
	return e.paginate(ctx, vc, ordered, req, surface, 0)
}

// validateRequest rejects malformed identifiers and out-of-range pagination
// before any retrieval happens.
func (e *Engine) validateRequest(req *FeedRequest) error {
	if strings.TrimSpace(req.ViewerID) == "" {
		return fmt.Errorf("%w: viewer id is required", ErrInvalidInput)
	}
	if req.Page < 1 || req.Page > e.cfg.Limits.MaxPage {
		return fmt.Errorf("%w: page must be in [1, %d], got %d", ErrInvalidInput, e.cfg.Limits.MaxPage, req.Page)
	}
	if req.PageSize < 1 || req.PageSize > e.cfg.Limits.MaxPageSize {
		return fmt.Errorf("%w: page size must be in [1, %d], got %d", ErrInvalidInput, e.cfg.Limits.MaxPageSize, req.PageSize)
	}

	kinds, err := normalizeKinds(req.Kinds)
	if err != nil {
		return err
	}
	req.Kinds = kinds
	return nil
}

// normalizeKinds deduplicates the requested kinds and rejects unknown ones.
// An empty request means all kinds.
func normalizeKinds(kinds []models.ContentKind) ([]models.ContentKind, error) {
	if len(kinds) == 0 {
		return []models.ContentKind{models.KindPost, models.KindReel}, nil
	}

	seen := make(map[models.ContentKind]struct{}, len(kinds))
	out := make([]models.ContentKind, 0, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: unknown content kind %q", ErrInvalidInput, k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// requestsBothKinds reports whether a normalized kind set asks for posts and
// reels together, which is what makes interleaving meaningful.
func requestsBothKinds(kinds []models.ContentKind) bool {
	var post, reel bool
	for _, k := range kinds {
		post = post || k == models.KindPost
		reel = reel || k == models.KindReel
	}
	return post && reel
}

// viewerContext assembles the per-request viewer state: follow graph, block
// set, and the suppression exclusions. The three lookups run concurrently.
func (e *Engine) viewerContext(ctx context.Context, viewerID string) (*ViewerContext, exclusions, error) {
	vc := &ViewerContext{
		ViewerID: viewerID,
		Now:      e.clock(),
		Viewed:   map[string]struct{}{},
	}
	var excl exclusions

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		followees, err := e.deps.Graph.FolloweeIDs(gctx, viewerID)
		if err != nil {
			return fmt.Errorf("followees for %s: %w", viewerID, err)
		}
		vc.Followees = followees
		return nil
	})
	g.Go(func() error {
		blocked, err := e.deps.Graph.BlockedIDs(gctx, viewerID)
		if err != nil {
			return fmt.Errorf("block set for %s: %w", viewerID, err)
		}
		vc.Blocked = blocked
		return nil
	})
	g.Go(func() error {
		suppressed, err := e.deps.Ledger.SuppressedItemIDs(gctx, viewerID)
		if err != nil {
			return fmt.Errorf("suppressed items for %s: %w", viewerID, err)
		}
		excl.ItemIDs = suppressed
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, exclusions{}, err
	}

	excl.AuthorIDs = vc.Blocked
	return vc, excl, nil
}

// markViewed resolves the viewer's view records for the candidate set and
// flags matching candidates for demotion.
func (e *Engine) markViewed(ctx context.Context, vc *ViewerContext, candidates []ScoredCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	itemIDs := make([]string, len(candidates))
	for i, c := range candidates {
		itemIDs[i] = c.Item.ID
	}

	flags, err := e.deps.Ledger.FlagsByItem(ctx, vc.ViewerID, itemIDs, []models.InteractionType{models.InteractionView})
	if err != nil {
		return err
	}

	for i := range candidates {
		if flags[candidates[i].Item.ID][models.InteractionView] {
			candidates[i].Viewed = true
			vc.Viewed[candidates[i].Item.ID] = struct{}{}
		}
	}
	return nil
}

// paginate slices the ordered candidate list into the requested page and
// hydrates it with author metadata.
func (e *Engine) paginate(ctx context.Context, vc *ViewerContext, ordered []ScoredCandidate, req FeedRequest, surface string, profileVersion int64) (*FeedPage, error) {
	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize
	if start > len(ordered) {
		start = len(ordered)
	}
	if end > len(ordered) {
		end = len(ordered)
	}
	window := ordered[start:end]

	items, err := e.hydrate(ctx, vc, window, surface)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		metrics.FeedItemsServed.WithLabelValues(surface, string(it.Item.Kind)).Inc()
	}

	return &FeedPage{
		Items:          items,
		Page:           req.Page,
		PageSize:       req.PageSize,
		HasMore:        len(ordered) > end,
		CandidateCount: len(ordered),
		ProfileVersion: profileVersion,
	}, nil
}

// hydrationFlagTypes are the viewer interactions surfaced on every page item.
var hydrationFlagTypes = []models.InteractionType{
	models.InteractionLike,
	models.InteractionSave,
	models.InteractionRepost,
}

// hydrate attaches author cards and the viewer's interaction flags to a page
// window. Both are batch lookups over the window, never per-item.
func (e *Engine) hydrate(ctx context.Context, vc *ViewerContext, window []ScoredCandidate, surface string) ([]FeedItem, error) {
	authorIDs := make([]string, 0, len(window))
	itemIDs := make([]string, 0, len(window))
	seen := make(map[string]struct{}, len(window))
	for _, c := range window {
		itemIDs = append(itemIDs, c.Item.ID)
		if _, ok := seen[c.Item.AuthorID]; ok {
			continue
		}
		seen[c.Item.AuthorID] = struct{}{}
		authorIDs = append(authorIDs, c.Item.AuthorID)
	}

	authors, err := e.deps.Authors.AuthorsByID(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate authors: %w", err)
	}

	flags, err := e.deps.Ledger.FlagsByItem(ctx, vc.ViewerID, itemIDs, hydrationFlagTypes)
	if err != nil {
		return nil, fmt.Errorf("hydrate interaction flags: %w", err)
	}

	items := make([]FeedItem, 0, len(window))
	for _, c := range window {
		f := flags[c.Item.ID]
		item := FeedItem{
			Item:     c.Item,
			Author:   authors[c.Item.AuthorID],
			Score:    c.Score,
			Source:   c.Source,
			Viewed:   c.Viewed,
			Liked:    f[models.InteractionLike],
			Saved:    f[models.InteractionSave],
			Reposted: f[models.InteractionRepost],
		}
		if surface != "explore" {
			_, item.Following = vc.Followees[c.Item.AuthorID]
		}
		items = append(items, item)
	}
	return items, nil
}

// resultLabel maps an assembly error to its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isInvalid(err):
		return "invalid"
	default:
		return "error"
	}
}
