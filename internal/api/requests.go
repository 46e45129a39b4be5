// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rookery-social/rookery/internal/validation"
)

// ViewerIDHeader identifies the requesting viewer. The upstream gateway is
// expected to set it after authentication; for local development the
// viewer_id query parameter works as a fallback.
const ViewerIDHeader = "X-Viewer-ID"

// Pagination defaults applied when the query omits page/page_size.
const (
	defaultPage     = 1
	defaultPageSize = 20
)

// feedQuery is the parsed and validated query for the feed endpoints.
type feedQuery struct {
	ViewerID string   `validate:"required"`
	Page     int      `validate:"min=1,max=50"`
	PageSize int      `validate:"min=1,max=50"`
	Kinds    []string `validate:"omitempty,dive,oneof=post reel"`
}

// impressionBody is the POST body for the impression endpoint. The viewer
// comes from the header, not the body, so a client cannot record impressions
// on another viewer's behalf. Position and source are optional client-side
// render metadata.
type impressionBody struct {
	ItemID    string `json:"item_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Position  int    `json:"position" validate:"omitempty,gte=0"`
	Source    string `json:"source" validate:"omitempty,oneof=own followed explore"`
}

// viewerID extracts the viewer identity from the request.
func viewerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ViewerIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("viewer_id"))
}

// parseFeedQuery reads viewer, page, and page_size from the request and
// validates them. A non-nil error is ready to send via writeParseError.
func parseFeedQuery(r *http.Request) (*feedQuery, error) {
	q := &feedQuery{
		ViewerID: viewerID(r),
		Page:     defaultPage,
		PageSize: defaultPageSize,
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("page must be an integer, got %q", raw)
		}
		q.Page = n
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("page_size must be an integer, got %q", raw)
		}
		q.PageSize = n
	}
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				q.Kinds = append(q.Kinds, k)
			}
		}
	}

	if verr := validation.ValidateStruct(q); verr != nil {
		return nil, verr
	}
	return q, nil
}

// parseImpressionBody decodes and validates the impression POST body.
func parseImpressionBody(r *http.Request) (*impressionBody, error) {
	var body impressionBody
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	body.ItemID = strings.TrimSpace(body.ItemID)
	body.SessionID = strings.TrimSpace(body.SessionID)

	if verr := validation.ValidateStruct(&body); verr != nil {
		return nil, verr
	}
	return &body, nil
}
