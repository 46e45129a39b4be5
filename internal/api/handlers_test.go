// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rookery-social/rookery/internal/api"
	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/models"
	"github.com/rookery-social/rookery/internal/store/memstore"
)

// envelope mirrors the API response shape for decoding in tests.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T, opts ...func(*api.RouterConfig, *api.Handlers)) chi.Router {
	t.Helper()

	ms := memstore.New()
	now := time.Now()

	ms.PutAuthor(models.AuthorCard{ID: "alice", Handle: "alice"})
	ms.PutItem(models.ContentItem{
		ID:          "item-1",
		AuthorID:    "alice",
		Kind:        models.KindPost,
		Visibility:  models.VisibilityPublic,
		Status:      models.StatusPublished,
		CreatedAt:   now.Add(-2 * time.Hour),
		PublishedAt: now.Add(-2 * time.Hour),
	})

	engine := feed.NewEngine(feed.DefaultConfig(), feed.Dependencies{
		Content:     ms,
		Ledger:      ms,
		Graph:       ms,
		Authors:     ms,
		Profiles:    ms,
		Impressions: ms,
		Engagement:  ms,
	})

	handlers := api.NewHandlers(engine)
	cfg := api.RouterConfig{
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	}
	for _, opt := range opts {
		opt(&cfg, handlers)
	}
	return api.NewRouter(handlers, cfg)
}

func doJSON(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestFeedEndpointsRequireViewer(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/feed/home", "/api/v1/feed/following", "/api/v1/feed/explore"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec, env := doJSON(t, router, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s without viewer: status %d, want 400", path, rec.Code)
		}
		if env.Success || env.Error == nil || env.Error.Code != api.ErrCodeValidation {
			t.Errorf("%s error envelope = %+v", path, env.Error)
		}
	}
}

func TestHomeFeedOK(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home", nil)
	req.Header.Set(api.ViewerIDHeader, "viewer-1")
	rec, env := doJSON(t, router, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("envelope = %+v", env)
	}

	var page feed.FeedPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Item.ID != "item-1" {
		t.Errorf("page items = %+v, want [item-1]", page.Items)
	}
	if page.Items[0].Author.Handle != "alice" {
		t.Errorf("author not hydrated: %+v", page.Items[0].Author)
	}

	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("meta missing request id")
	}
	if rec.Header().Get("X-Request-ID") != env.Meta.RequestID {
		t.Error("response header request id differs from meta")
	}
}

func TestViewerIDQueryFallback(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home?viewer_id=viewer-1", nil)
	rec, _ := doJSON(t, router, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200 with query viewer id", rec.Code)
	}
}

func TestFeedQueryErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"non-numeric page", "?page=abc", api.ErrCodeBadRequest},
		{"page zero", "?page=0", api.ErrCodeValidation},
		{"page size above cap", "?page_size=51", api.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home"+tt.query, nil)
			req.Header.Set(api.ViewerIDHeader, "viewer-1")
			rec, env := doJSON(t, router, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rec.Code)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestFeedKindsQuery(t *testing.T) {
	router := newTestRouter(t)

	get := func(query string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home"+query, nil)
		req.Header.Set(api.ViewerIDHeader, "viewer-1")
		return doJSON(t, router, req)
	}

	decode := func(t *testing.T, env envelope) feed.FeedPage {
		t.Helper()
		var page feed.FeedPage
		if err := json.Unmarshal(env.Data, &page); err != nil {
			t.Fatalf("decode page: %v", err)
		}
		return page
	}

	t.Run("posts only keeps the post", func(t *testing.T) {
		rec, env := get("?kinds=post")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if page := decode(t, env); len(page.Items) != 1 || page.Items[0].Item.ID != "item-1" {
			t.Errorf("items = %+v, want [item-1]", page.Items)
		}
	})

	t.Run("reels only filters the post out", func(t *testing.T) {
		rec, env := get("?kinds=reel")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if page := decode(t, env); len(page.Items) != 0 {
			t.Errorf("items = %+v, want empty", page.Items)
		}
	})

	t.Run("comma list accepted", func(t *testing.T) {
		rec, env := get("?kinds=post,%20reel")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if page := decode(t, env); len(page.Items) != 1 {
			t.Errorf("items = %+v, want [item-1]", page.Items)
		}
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		rec, env := get("?kinds=story")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
		if env.Error == nil || env.Error.Code != api.ErrCodeValidation {
			t.Errorf("error = %+v, want %s", env.Error, api.ErrCodeValidation)
		}
	})
}

func TestFeedItemFlagsInPayload(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home", nil)
	req.Header.Set(api.ViewerIDHeader, "viewer-1")
	rec, env := doJSON(t, router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	// The raw payload must carry the interaction flags so clients can render
	// them without a second round trip.
	for _, field := range []string{`"liked"`, `"saved"`, `"reposted"`, `"viewed"`} {
		if !strings.Contains(string(env.Data), field) {
			t.Errorf("feed payload missing %s field: %s", field, env.Data)
		}
	}
}

func TestPostImpression(t *testing.T) {
	router := newTestRouter(t)

	post := func(body string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/feed/impressions", strings.NewReader(body))
		req.Header.Set(api.ViewerIDHeader, "viewer-1")
		req.Header.Set("Content-Type", "application/json")
		return doJSON(t, router, req)
	}

	rec, env := post(`{"item_id":"item-1","session_id":"s1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first impression: status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var res feed.ImpressionResult
	if err := json.Unmarshal(env.Data, &res); err != nil || !res.Recorded {
		t.Fatalf("first impression result = %+v (%v), want recorded", res, err)
	}

	rec, env = post(`{"item_id":"item-1","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("replay: status %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Recorded {
		t.Errorf("replay result = %+v, want not recorded", res)
	}

	t.Run("unknown item", func(t *testing.T) {
		rec, env := post(`{"item_id":"ghost","session_id":"s1"}`)
		if rec.Code != http.StatusNotFound || env.Error.Code != api.ErrCodeNotFound {
			t.Errorf("status %d, error %+v", rec.Code, env.Error)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		rec, env := post(`{"item_id":"item-1"}`)
		if rec.Code != http.StatusBadRequest || env.Error.Code != api.ErrCodeValidation {
			t.Errorf("status %d, error %+v", rec.Code, env.Error)
		}
	})

	t.Run("position and source accepted", func(t *testing.T) {
		rec, env := post(`{"item_id":"item-1","session_id":"s-pos","position":3,"source":"explore"}`)
		if rec.Code != http.StatusCreated {
			t.Errorf("status %d, want 201: %s", rec.Code, rec.Body.String())
		}
		var res feed.ImpressionResult
		if err := json.Unmarshal(env.Data, &res); err != nil || !res.Recorded {
			t.Errorf("result = %+v (%v), want recorded", res, err)
		}
	})

	t.Run("negative position rejected", func(t *testing.T) {
		rec, env := post(`{"item_id":"item-1","session_id":"s-neg","position":-1}`)
		if rec.Code != http.StatusBadRequest || env.Error.Code != api.ErrCodeValidation {
			t.Errorf("status %d, error %+v", rec.Code, env.Error)
		}
	})

	t.Run("unknown source rejected", func(t *testing.T) {
		rec, env := post(`{"item_id":"item-1","session_id":"s-src","source":"sidebar"}`)
		if rec.Code != http.StatusBadRequest || env.Error.Code != api.ErrCodeValidation {
			t.Errorf("status %d, error %+v", rec.Code, env.Error)
		}
	})

	t.Run("unknown body field", func(t *testing.T) {
		rec, _ := post(`{"item_id":"item-1","session_id":"s1","extra":true}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})

	t.Run("missing viewer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/feed/impressions",
			strings.NewReader(`{"item_id":"item-1","session_id":"s1"}`))
		rec, env := doJSON(t, router, req)
		if rec.Code != http.StatusBadRequest || env.Error.Code != api.ErrCodeBadRequest {
			t.Errorf("status %d, error %+v", rec.Code, env.Error)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		router := newTestRouter(t)
		rec, env := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
		if rec.Code != http.StatusOK || !env.Success {
			t.Errorf("live: status %d, envelope %+v", rec.Code, env)
		}
	})

	t.Run("ready without check", func(t *testing.T) {
		router := newTestRouter(t)
		rec, _ := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("ready: status %d, want 200", rec.Code)
		}
	})

	t.Run("ready with failing check", func(t *testing.T) {
		router := newTestRouter(t, func(_ *api.RouterConfig, h *api.Handlers) {
			h.WithReadiness(func(context.Context) error { return errors.New("store offline") })
		})
		rec, env := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("ready: status %d, want 503", rec.Code)
		}
		if env.Success {
			t.Error("ready failure reported success")
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}
}

func TestFeedRateLimit(t *testing.T) {
	router := newTestRouter(t, func(cfg *api.RouterConfig, _ *api.Handlers) {
		cfg.RateLimitDisabled = false
		cfg.RateLimitRequests = 2
		cfg.RateLimitWindow = time.Minute
	})

	get := func(viewer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/home", nil)
		req.Header.Set(api.ViewerIDHeader, viewer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("viewer-1"); rec.Code != http.StatusOK {
		t.Fatalf("request 1: status %d", rec.Code)
	}
	if rec := get("viewer-1"); rec.Code != http.StatusOK {
		t.Fatalf("request 2: status %d", rec.Code)
	}

	rec := get("viewer-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request 3: status %d, want 429", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error == nil || env.Error.Code != api.ErrCodeTooManyRequests {
		t.Errorf("error = %+v", env.Error)
	}

	// A different viewer has its own budget.
	if rec := get("viewer-2"); rec.Code != http.StatusOK {
		t.Errorf("other viewer: status %d, want 200", rec.Code)
	}
}
