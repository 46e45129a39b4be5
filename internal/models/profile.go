// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package models

import (
	"sort"
	"time"
)

// Taste profile mapping bounds. Each affinity map is truncated to its top-N
// entries by weight whenever the profile is rebuilt.
const (
	// MaxProfileHashtags bounds the hashtag affinity map.
	MaxProfileHashtags = 120
	// MaxProfileTopics bounds the topic affinity map.
	MaxProfileTopics = 120
	// MaxProfileAuthors bounds the author affinity map.
	MaxProfileAuthors = 200
	// MaxProfileKinds bounds the kind affinity map.
	MaxProfileKinds = 10
)

// TasteProfile is a per-viewer record of weighted affinities derived from
// recent interaction history. It is always replaced wholesale on rebuild,
// never merged incrementally.
type TasteProfile struct {
	// ViewerID is the profile owner.
	ViewerID string `json:"viewer_id"`

	// Hashtags maps hashtag -> non-negative affinity weight.
	Hashtags map[string]float64 `json:"hashtags"`

	// Topics maps topic -> non-negative affinity weight.
	Topics map[string]float64 `json:"topics"`

	// Authors maps author ID -> non-negative affinity weight.
	Authors map[string]float64 `json:"authors"`

	// Kinds maps content kind -> non-negative affinity weight.
	Kinds map[string]float64 `json:"kinds"`

	// Version increments on every rebuild.
	Version int64 `json:"version"`

	// RebuiltAt is when the profile was last rebuilt.
	RebuiltAt time.Time `json:"rebuilt_at"`
}

// IsStale reports whether the profile is older than the given TTL.
func (p *TasteProfile) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.RebuiltAt) > ttl
}

// Truncate bounds every affinity map to the package-level top-N limits.
func (p *TasteProfile) Truncate() {
	p.Hashtags = TopNWeights(p.Hashtags, MaxProfileHashtags)
	p.Topics = TopNWeights(p.Topics, MaxProfileTopics)
	p.Authors = TopNWeights(p.Authors, MaxProfileAuthors)
	p.Kinds = TopNWeights(p.Kinds, MaxProfileKinds)
}

// TopNWeights returns a map keeping only the n highest-weighted keys of m.
// Ties are broken by key ascending so truncation is deterministic.
func TopNWeights(m map[string]float64, n int) map[string]float64 {
	if len(m) <= n {
		if m == nil {
			return map[string]float64{}
		}
		return m
	}

	type kv struct {
		key    string
		weight float64
	}
	entries := make([]kv, 0, len(m))
	for k, w := range m {
		entries = append(entries, kv{k, w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].key < entries[j].key
	})

	out := make(map[string]float64, n)
	for _, e := range entries[:n] {
		out[e.key] = e.weight
	}
	return out
}

// AuthorCard is the display metadata attached to hydrated feed items.
// It is provided by the author directory collaborator.
type AuthorCard struct {
	// ID is the author's user ID.
	ID string `json:"id"`

	// DisplayName is the author's display name.
	DisplayName string `json:"display_name"`

	// Handle is the author's unique handle.
	Handle string `json:"handle"`

	// AvatarURL points at the author's avatar image.
	AvatarURL string `json:"avatar_url,omitempty"`
}
