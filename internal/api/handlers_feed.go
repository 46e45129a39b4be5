// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/middleware"
	"github.com/rookery-social/rookery/internal/models"
	"github.com/rookery-social/rookery/internal/validation"
)

// Handlers holds the feed engine and serves the HTTP endpoints.
type Handlers struct {
	engine *feed.Engine

	// readiness is consulted by the readiness probe. Nil means always ready.
	readiness func(ctx context.Context) error
}

// NewHandlers creates the endpoint handlers around the feed engine.
func NewHandlers(engine *feed.Engine) *Handlers {
	return &Handlers{engine: engine}
}

// WithReadiness installs a readiness check consulted by /health/ready.
func (h *Handlers) WithReadiness(check func(ctx context.Context) error) *Handlers {
	h.readiness = check
	return h
}

// GetHomeFeed serves GET /api/v1/feed/home: the blended Own + Followed +
// Explore ranked feed.
func (h *Handlers) GetHomeFeed(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.engine.HomeFeed)
}

// GetFollowingFeed serves GET /api/v1/feed/following: followed authors only.
func (h *Handlers) GetFollowingFeed(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.engine.FollowingFeed)
}

// GetExploreFeed serves GET /api/v1/feed/explore: taste-boosted discovery
// from non-followed authors.
func (h *Handlers) GetExploreFeed(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.engine.ExploreFeed)
}

func (h *Handlers) serveFeed(w http.ResponseWriter, r *http.Request, fetch func(context.Context, feed.FeedRequest) (*feed.FeedPage, error)) {
	rw := NewResponseWriter(w, r)

	q, err := parseFeedQuery(r)
	if err != nil {
		writeParseError(rw, err)
		return
	}

	kinds := make([]models.ContentKind, len(q.Kinds))
	for i, k := range q.Kinds {
		kinds[i] = models.ContentKind(k)
	}

	page, err := fetch(r.Context(), feed.FeedRequest{
		ViewerID: q.ViewerID,
		Page:     q.Page,
		PageSize: q.PageSize,
		Kinds:    kinds,
	})
	if err != nil {
		writeFeedError(rw, r, err)
		return
	}

	rw.Success(http.StatusOK, page)
}

// PostImpression serves POST /api/v1/feed/impressions. Recording is
// idempotent per (viewer, item, session); replays return recorded=false.
func (h *Handlers) PostImpression(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	viewer := viewerID(r)
	if viewer == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "ViewerID is required", nil)
		return
	}

	body, err := parseImpressionBody(r)
	if err != nil {
		writeParseError(rw, err)
		return
	}

	res, err := h.engine.RecordImpression(r.Context(), feed.ImpressionRequest{
		ViewerID:  viewer,
		ItemID:    body.ItemID,
		SessionID: body.SessionID,
		Position:  body.Position,
		Source:    body.Source,
	})
	if err != nil {
		writeFeedError(rw, r, err)
		return
	}

	status := http.StatusCreated
	if !res.Recorded {
		status = http.StatusOK
	}
	rw.Success(status, res)
}

// writeParseError maps request parsing failures to a 400 response, preserving
// per-field detail for validation errors.
func writeParseError(rw *ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.Error(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
		return
	}
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
}

// writeFeedError maps feed engine errors to HTTP statuses.
func writeFeedError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidInput):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
	case errors.Is(err, feed.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Item not found", nil)
	case errors.Is(err, feed.ErrForbidden):
		rw.Error(http.StatusForbidden, ErrCodeForbidden, "Access denied", nil)
	default:
		logging.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("Feed request failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}
