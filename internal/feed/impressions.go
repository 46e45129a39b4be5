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

	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
)

// ImpressionTTL is the retention window for impression-dedup keys. Duplicate
// (viewer, item, session) triples inside the window are suppressed; the keys
// then expire so the dedup ledger does not grow without bound.
const ImpressionTTL = 48 * time.Hour

// ImpressionRequest records that an item was rendered in a viewer's feed.
type ImpressionRequest struct {
	ViewerID  string
	ItemID    string
	SessionID string

	// Position is the zero-based slot the item was rendered at. Optional,
	// recorded for diagnostics only.
	Position int

	// Source names the candidate pool the client says served the item.
	// Optional, recorded for diagnostics only.
	Source string
}

// ImpressionResult reports what recording did.
type ImpressionResult struct {
	// Recorded is true on first acceptance, false when the triple was a
	// duplicate within the retention window.
	Recorded bool `json:"recorded"`
}

// RecordImpression idempotently records a feed impression. The first
// acceptance of a (viewer, item, session) triple increments the item's
// impression counter; replays succeed without any effect. Missing or
// soft-deleted items yield ErrNotFound; a block relation between viewer and
// author yields ErrForbidden.
func (e *Engine) RecordImpression(ctx context.Context, req ImpressionRequest) (*ImpressionResult, error) {
	res, err := e.recordImpression(ctx, req)
	metrics.ImpressionsRecorded.WithLabelValues(impressionLabel(res, err)).Inc()
	return res, err
}

func (e *Engine) recordImpression(ctx context.Context, req ImpressionRequest) (*ImpressionResult, error) {
	if strings.TrimSpace(req.ViewerID) == "" {
		return nil, fmt.Errorf("%w: viewer id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ItemID) == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	item, err := e.deps.Content.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsLive(e.clock()) {
		return nil, fmt.Errorf("%w: item %s is not live", ErrNotFound, req.ItemID)
	}

	blocked, err := e.deps.Graph.BlockedIDs(ctx, req.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("block set for %s: %w", req.ViewerID, err)
	}
	if _, ok := blocked[item.AuthorID]; ok {
		return nil, fmt.Errorf("%w: viewer %s and author %s", ErrForbidden, req.ViewerID, item.AuthorID)
	}

	first, err := e.deps.Impressions.MarkSeen(ctx, req.ViewerID, req.ItemID, req.SessionID, ImpressionTTL)
	if err != nil {
		return nil, fmt.Errorf("mark impression: %w", err)
	}
	if !first {
		return &ImpressionResult{Recorded: false}, nil
	}

	if err := e.deps.Engagement.ApplyImpression(ctx, req.ItemID); err != nil {
		// Roll back the dedup mark so a retry is not misreported as a
		// duplicate while the counter was never incremented.
		if uerr := e.deps.Impressions.Unmark(ctx, req.ViewerID, req.ItemID, req.SessionID); uerr != nil {
			logging.Err(uerr).
				Str("viewer_id", req.ViewerID).
				Str("item_id", req.ItemID).
				Msg("Impression unmark failed after counter error")
		}
		return nil, fmt.Errorf("apply impression for %s: %w", req.ItemID, err)
	}

	logging.Debug().
		Str("viewer_id", req.ViewerID).
		Str("item_id", req.ItemID).
		Int("position", req.Position).
		Str("source", req.Source).
		Msg("Impression recorded")
	return &ImpressionResult{Recorded: true}, nil
}

func impressionLabel(res *ImpressionResult, err error) string {
	switch {
	case err == nil && res.Recorded:
		return "recorded"
	case err == nil:
		return "duplicate"
	case isInvalid(err):
		return "invalid"
	case isNotFound(err):
		return "not_found"
	case isForbidden(err):
		return "forbidden"
	default:
		return "error"
	}
}
