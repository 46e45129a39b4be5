// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import (
	"context"
	"time"

	"github.com/rookery-social/rookery/internal/models"
)

// ContentOrder selects the coarse storage-side ordering of a candidate query.
// It only bounds which items are fetched; final ordering is always re-derived
// by the scorer.
type ContentOrder string

const (
	// OrderRecency orders by publish time, newest first.
	OrderRecency ContentOrder = "recency"
	// OrderPopularity orders by a coarse popularity proxy, highest first.
	OrderPopularity ContentOrder = "popularity"
)

// ContentQuery describes one candidate retrieval against the content store.
// Zero-valued fields mean "no constraint".
type ContentQuery struct {
	// AuthorIDs restricts results to these authors. Nil means any author.
	AuthorIDs []string

	// ExcludeAuthorIDs removes items by these authors.
	ExcludeAuthorIDs map[string]struct{}

	// Kinds restricts results to these content kinds.
	Kinds []models.ContentKind

	// Visibilities restricts results to these visibilities.
	Visibilities []models.Visibility

	// PublishedAfter keeps only items published after this instant.
	PublishedAfter time.Time

	// ExcludeItemIDs removes specific items (hidden/reported sets).
	ExcludeItemIDs map[string]struct{}

	// OrderBy is the storage-side ordering heuristic.
	OrderBy ContentOrder

	// Limit caps the number of returned items. Required.
	Limit int
}

// ContentSource is the content-store collaborator. Implementations must only
// return live items: published, not soft-deleted, and not scheduled for the
// future relative to the query time.
type ContentSource interface {
	// QueryItems returns unscored candidate items matching the query.
	// Returning fewer items than Limit is not an error.
	QueryItems(ctx context.Context, q ContentQuery) ([]models.ContentItem, error)

	// GetItem returns a single item by ID, including soft-deleted ones.
	// Returns ErrNotFound if the ID is unknown.
	GetItem(ctx context.Context, itemID string) (*models.ContentItem, error)

	// ItemsByID batch-resolves items by ID. Unknown or deleted IDs are
	// simply absent from the result map.
	ItemsByID(ctx context.Context, itemIDs []string) (map[string]models.ContentItem, error)
}

// InteractionLedger is the read side of the append-only interaction ledger.
type InteractionLedger interface {
	// ListRecent returns the viewer's interactions of the given types since
	// the given instant, newest first, bounded by limit.
	ListRecent(ctx context.Context, viewerID string, types []models.InteractionType, since time.Time, limit int) ([]models.InteractionRecord, error)

	// SuppressedItemIDs returns the set of item IDs the viewer has hidden
	// or reported.
	SuppressedItemIDs(ctx context.Context, viewerID string) (map[string]struct{}, error)

	// FlagsByItem reports, for each of the given items, which of the given
	// interaction types the viewer has on record.
	FlagsByItem(ctx context.Context, viewerID string, itemIDs []string, types []models.InteractionType) (map[string]map[models.InteractionType]bool, error)

	// ActiveViewerIDs returns viewers with any ledger activity since the
	// given instant, bounded by limit. Used by the profile janitor.
	ActiveViewerIDs(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// EngagementSink is the single seam through which this core mutates
// engagement counters. The scorer only ever reads counter snapshots.
type EngagementSink interface {
	// ApplyImpression increments the item's impression counter by one.
	ApplyImpression(ctx context.Context, itemID string) error
}

// SocialGraph exposes follow and block relations as viewer-centric ID sets.
type SocialGraph interface {
	// FolloweeIDs returns the set of author IDs the viewer follows.
	FolloweeIDs(ctx context.Context, viewerID string) (map[string]struct{}, error)

	// BlockedIDs returns the bidirectional block set for the viewer:
	// users the viewer blocks plus users blocking the viewer.
	BlockedIDs(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// AuthorDirectory batch-resolves author display metadata for hydration.
type AuthorDirectory interface {
	AuthorsByID(ctx context.Context, authorIDs []string) (map[string]models.AuthorCard, error)
}

// ProfileStore persists taste profiles. Writes are wholesale replacements;
// last-write-wins is acceptable for racing rebuilds of the same viewer.
type ProfileStore interface {
	// GetProfile returns the viewer's profile, or ErrProfileNotFound.
	GetProfile(ctx context.Context, viewerID string) (*models.TasteProfile, error)

	// PutProfile replaces the viewer's profile.
	PutProfile(ctx context.Context, profile *models.TasteProfile) error
}

// ImpressionStore deduplicates impressions per (viewer, item, session).
type ImpressionStore interface {
	// MarkSeen records the triple and reports whether it was newly
	// recorded. False means a duplicate within the retention window.
	MarkSeen(ctx context.Context, viewerID, itemID, sessionID string, ttl time.Duration) (bool, error)

	// Unmark removes a recorded triple, rolling back a MarkSeen whose
	// side effects failed to apply. Unmarking an absent triple is a no-op.
	Unmark(ctx context.Context, viewerID, itemID, sessionID string) error
}
