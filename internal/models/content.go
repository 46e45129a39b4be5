// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package models defines the domain value types shared across the feed core,
// stores, and API layer. All types here are plain data: validation and
// normalization happen at the write boundary, never during ranking.
package models

import (
	"strings"
	"time"
)

// ContentKind classifies a content item.
type ContentKind string

const (
	// KindPost is a standard post (text and/or images).
	KindPost ContentKind = "post"
	// KindReel is a short-form video.
	KindReel ContentKind = "reel"
)

// Valid reports whether the kind is a known content kind.
func (k ContentKind) Valid() bool {
	return k == KindPost || k == KindReel
}

// Visibility controls which viewers may see a content item.
type Visibility string

const (
	// VisibilityPublic items are visible to everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityFollowers items are visible to the author's followers.
	VisibilityFollowers Visibility = "followers"
	// VisibilityPrivate items are visible only to the author.
	VisibilityPrivate Visibility = "private"
)

// LifecycleStatus is the publication state of a content item.
type LifecycleStatus string

const (
	// StatusPublished items are live.
	StatusPublished LifecycleStatus = "published"
	// StatusScheduled items are queued for a future publish time.
	StatusScheduled LifecycleStatus = "scheduled"
)

// Tag set caps enforced at the write boundary.
const (
	// MaxHashtags is the maximum number of hashtags stored per item.
	MaxHashtags = 30
	// MaxTopics is the maximum number of topics stored per item.
	MaxTopics = 10
	// MaxMentions is the maximum number of mentions stored per item.
	MaxMentions = 20
)

// EngagementCounters holds the denormalized engagement totals for an item.
// Counters are mutated by interaction handlers outside the ranking core;
// the scorer only ever reads a snapshot.
type EngagementCounters struct {
	// Hearts is the number of likes.
	Hearts int64 `json:"hearts"`

	// Comments is the number of comments.
	Comments int64 `json:"comments"`

	// Saves is the number of saves/bookmarks.
	Saves int64 `json:"saves"`

	// Shares is the number of external shares.
	Shares int64 `json:"shares"`

	// Reposts is the number of in-network reposts.
	Reposts int64 `json:"reposts"`

	// Views is the number of view interactions.
	Views int64 `json:"views"`

	// Impressions is the number of recorded feed impressions.
	Impressions int64 `json:"impressions"`

	// Hides is the number of viewers who hid the item.
	Hides int64 `json:"hides"`

	// Reports is the number of viewers who reported the item.
	Reports int64 `json:"reports"`
}

// ContentItem represents a post or reel as the ranking core sees it.
type ContentItem struct {
	// ID is the opaque unique item identifier.
	ID string `json:"id"`

	// AuthorID references the authoring user.
	AuthorID string `json:"author_id"`

	// Kind is the content kind (post or reel).
	Kind ContentKind `json:"kind"`

	// Visibility controls the audience.
	Visibility Visibility `json:"visibility"`

	// Status is the publication lifecycle state.
	Status LifecycleStatus `json:"status"`

	// CreatedAt is when the item was submitted.
	CreatedAt time.Time `json:"created_at"`

	// PublishedAt is when the item went (or goes) live.
	PublishedAt time.Time `json:"published_at"`

	// Counters is the engagement counter snapshot.
	Counters EngagementCounters `json:"counters"`

	// QualityScore is an externally computed quality signal.
	// Unbounded but conventionally small.
	QualityScore float64 `json:"quality_score"`

	// SpamScore is an externally computed spam signal.
	SpamScore float64 `json:"spam_score"`

	// Hashtags is the lowercased, deduplicated hashtag set.
	Hashtags []string `json:"hashtags,omitempty"`

	// Topics is the lowercased, deduplicated topic set.
	Topics []string `json:"topics,omitempty"`

	// Mentions is the lowercased, deduplicated mention set.
	Mentions []string `json:"mentions,omitempty"`

	// PrimaryVideoDurationMs is the duration of the item's primary video,
	// zero for non-video content.
	PrimaryVideoDurationMs int64 `json:"primary_video_duration_ms,omitempty"`

	// DeletedAt is the soft-delete marker. Non-nil means the item is
	// excluded from every candidate pool.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the item has been soft-deleted.
func (c *ContentItem) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsLive reports whether the item is eligible for candidate pools at the
// given time: published, not soft-deleted, and not scheduled for the future.
func (c *ContentItem) IsLive(now time.Time) bool {
	if c.IsDeleted() {
		return false
	}
	if c.Status != StatusPublished {
		return false
	}
	return !c.PublishedAt.After(now)
}

// NormalizeTags lowercases, trims, deduplicates, and caps a tag set while
// preserving first-seen order. Empty entries are dropped.
func NormalizeTags(tags []string, capSize int) []string {
	if len(tags) == 0 || capSize <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) >= capSize {
			break
		}
	}
	return out
}
