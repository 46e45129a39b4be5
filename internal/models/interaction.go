// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package models

import "time"

// InteractionType classifies a viewer-to-item action in the ledger.
type InteractionType string

const (
	// InteractionView is a (repeatable) view with optional watch duration.
	InteractionView InteractionType = "view"
	// InteractionLike is a heart.
	InteractionLike InteractionType = "like"
	// InteractionSave is a save/bookmark.
	InteractionSave InteractionType = "save"
	// InteractionShare is an external share.
	InteractionShare InteractionType = "share"
	// InteractionRepost is an in-network repost.
	InteractionRepost InteractionType = "repost"
	// InteractionHide suppresses the item from the viewer's feeds.
	InteractionHide InteractionType = "hide"
	// InteractionReport flags the item; it also suppresses it.
	InteractionReport InteractionType = "report"
)

// Valid reports whether the type is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionLike, InteractionSave,
		InteractionShare, InteractionRepost, InteractionHide, InteractionReport:
		return true
	default:
		return false
	}
}

// TasteSignalTypes lists the interaction types that feed the taste profile
// rebuild.
var TasteSignalTypes = []InteractionType{
	InteractionLike,
	InteractionSave,
	InteractionRepost,
	InteractionShare,
	InteractionView,
}

// SuppressionTypes lists the interaction types that remove an item from a
// viewer's candidate pools.
var SuppressionTypes = []InteractionType{
	InteractionHide,
	InteractionReport,
}

// InteractionRecord is one append-only row of the interaction ledger.
// At most one row exists per (viewer, item, type) except for views, which
// are repeatable and carry a watch duration.
type InteractionRecord struct {
	// ViewerID is the acting user.
	ViewerID string `json:"viewer_id"`

	// ItemID is the content item acted upon.
	ItemID string `json:"item_id"`

	// Type is the action taken.
	Type InteractionType `json:"type"`

	// OccurredAt is when the action happened.
	OccurredAt time.Time `json:"occurred_at"`

	// WatchedDurationMs is how long the viewer watched, for views only.
	WatchedDurationMs int64 `json:"watched_duration_ms,omitempty"`
}
