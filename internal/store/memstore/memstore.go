// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package memstore is the in-memory reference implementation of every
// collaborator interface the feed engine consumes. It backs development
// deployments and the engine's tests; production deployments swap in real
// stores behind the same interfaces.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/models"
)

// Store is a thread-safe in-memory implementation of the feed engine's
// collaborator interfaces.
type Store struct {
	mu sync.RWMutex

	items        map[string]models.ContentItem
	authors      map[string]models.AuthorCard
	interactions map[string][]models.InteractionRecord
	follows      map[string]map[string]struct{}
	blocks       map[string]map[string]struct{}
	profiles     map[string]models.TasteProfile
	impressions  map[string]time.Time

	clock func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items:        map[string]models.ContentItem{},
		authors:      map[string]models.AuthorCard{},
		interactions: map[string][]models.InteractionRecord{},
		follows:      map[string]map[string]struct{}{},
		blocks:       map[string]map[string]struct{}{},
		profiles:     map[string]models.TasteProfile{},
		impressions:  map[string]time.Time{},
		clock:        time.Now,
	}
}

// SetClock overrides the store's time source, for tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// --- write side (seeding, tests, interaction handlers) ---

// PutItem inserts or replaces a content item.
func (s *Store) PutItem(item models.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// PutAuthor inserts or replaces an author card.
func (s *Store) PutAuthor(card models.AuthorCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[card.ID] = card
}

// Follow records that viewerID follows each of authorIDs.
func (s *Store) Follow(viewerID string, authorIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.follows[viewerID]
	if set == nil {
		set = map[string]struct{}{}
		s.follows[viewerID] = set
	}
	for _, id := range authorIDs {
		set[id] = struct{}{}
	}
}

// Block records a block from blockerID against blockedID. Blocks are stored
// one-directionally and resolved bidirectionally at read time.
func (s *Store) Block(blockerID, blockedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.blocks[blockerID]
	if set == nil {
		set = map[string]struct{}{}
		s.blocks[blockerID] = set
	}
	set[blockedID] = struct{}{}
}

// AddInteraction appends a ledger record.
func (s *Store) AddInteraction(rec models.InteractionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[rec.ViewerID] = append(s.interactions[rec.ViewerID], rec)
}

// --- feed.ContentSource ---

// QueryItems returns live items matching the query, ordered and limited.
func (s *Store) QueryItems(_ context.Context, q feed.ContentQuery) ([]models.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock()

	var authorFilter map[string]struct{}
	if q.AuthorIDs != nil {
		authorFilter = make(map[string]struct{}, len(q.AuthorIDs))
		for _, id := range q.AuthorIDs {
			authorFilter[id] = struct{}{}
		}
	}
	var kindFilter map[models.ContentKind]struct{}
	if q.Kinds != nil {
		kindFilter = make(map[models.ContentKind]struct{}, len(q.Kinds))
		for _, k := range q.Kinds {
			kindFilter[k] = struct{}{}
		}
	}
	var visFilter map[models.Visibility]struct{}
	if q.Visibilities != nil {
		visFilter = make(map[models.Visibility]struct{}, len(q.Visibilities))
		for _, v := range q.Visibilities {
			visFilter[v] = struct{}{}
		}
	}

	matched := make([]models.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		if !item.IsLive(now) {
			continue
		}
		if authorFilter != nil {
			if _, ok := authorFilter[item.AuthorID]; !ok {
				continue
			}
		}
		if _, excluded := q.ExcludeAuthorIDs[item.AuthorID]; excluded {
			continue
		}
		if kindFilter != nil {
			if _, ok := kindFilter[item.Kind]; !ok {
				continue
			}
		}
		if visFilter != nil {
			if _, ok := visFilter[item.Visibility]; !ok {
				continue
			}
		}
		if !q.PublishedAfter.IsZero() && !item.PublishedAt.After(q.PublishedAfter) {
			continue
		}
		if _, excluded := q.ExcludeItemIDs[item.ID]; excluded {
			continue
		}
		matched = append(matched, item)
	}

	switch q.OrderBy {
	case feed.OrderPopularity:
		sort.Slice(matched, func(i, j int) bool {
			pi, pj := popularityProxy(&matched[i]), popularityProxy(&matched[j])
			if pi != pj {
				return pi > pj
			}
			if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
				return matched[i].PublishedAt.After(matched[j].PublishedAt)
			}
			return matched[i].ID > matched[j].ID
		})
	default:
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
				return matched[i].PublishedAt.After(matched[j].PublishedAt)
			}
			return matched[i].ID > matched[j].ID
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// popularityProxy is the coarse storage-side popularity ordering. It does not
// need to match the scorer; it only decides which items enter the pool.
func popularityProxy(item *models.ContentItem) int64 {
	c := item.Counters
	return c.Hearts*2 + c.Comments*3 + c.Saves*4 + c.Shares*3 + c.Reposts*3
}

// GetItem returns an item by ID, including soft-deleted ones.
func (s *Store) GetItem(_ context.Context, itemID string) (*models.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", feed.ErrNotFound, itemID)
	}
	return &item, nil
}

// ItemsByID batch-resolves items; unknown and deleted IDs are absent.
func (s *Store) ItemsByID(_ context.Context, itemIDs []string) (map[string]models.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.ContentItem, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok && !item.IsDeleted() {
			out[id] = item
		}
	}
	return out, nil
}

// --- feed.InteractionLedger ---

// ListRecent returns the viewer's interactions of the given types since the
// given instant, newest first, bounded by limit.
func (s *Store) ListRecent(_ context.Context, viewerID string, types []models.InteractionType, since time.Time, limit int) ([]models.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeSet := make(map[models.InteractionType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	out := make([]models.InteractionRecord, 0, limit)
	for _, rec := range s.interactions[viewerID] {
		if rec.OccurredAt.Before(since) {
			continue
		}
		if _, ok := typeSet[rec.Type]; !ok {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ItemID > out[j].ItemID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SuppressedItemIDs returns the items the viewer has hidden or reported.
func (s *Store) SuppressedItemIDs(_ context.Context, viewerID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]struct{}{}
	for _, rec := range s.interactions[viewerID] {
		if rec.Type == models.InteractionHide || rec.Type == models.InteractionReport {
			out[rec.ItemID] = struct{}{}
		}
	}
	return out, nil
}

// FlagsByItem reports which of the given types the viewer has on record for
// each of the given items.
func (s *Store) FlagsByItem(_ context.Context, viewerID string, itemIDs []string, types []models.InteractionType) (map[string]map[models.InteractionType]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idSet := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		idSet[id] = struct{}{}
	}
	typeSet := make(map[models.InteractionType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	out := make(map[string]map[models.InteractionType]bool, len(itemIDs))
	for _, rec := range s.interactions[viewerID] {
		if _, ok := idSet[rec.ItemID]; !ok {
			continue
		}
		if _, ok := typeSet[rec.Type]; !ok {
			continue
		}
		flags := out[rec.ItemID]
		if flags == nil {
			flags = map[models.InteractionType]bool{}
			out[rec.ItemID] = flags
		}
		flags[rec.Type] = true
	}
	return out, nil
}

// ActiveViewerIDs returns viewers with ledger activity since the given
// instant, sorted for determinism and bounded by limit.
func (s *Store) ActiveViewerIDs(_ context.Context, since time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.interactions))
	for viewerID, recs := range s.interactions {
		for _, rec := range recs {
			if !rec.OccurredAt.Before(since) {
				out = append(out, viewerID)
				break
			}
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- feed.EngagementSink ---

// ApplyImpression increments the item's impression counter.
func (s *Store) ApplyImpression(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", feed.ErrNotFound, itemID)
	}
	item.Counters.Impressions++
	s.items[itemID] = item
	return nil
}

// --- feed.SocialGraph ---

// FolloweeIDs returns the viewer's followed author set.
func (s *Store) FolloweeIDs(_ context.Context, viewerID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.follows[viewerID]))
	for id := range s.follows[viewerID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// BlockedIDs returns the bidirectional block set for the viewer.
func (s *Store) BlockedIDs(_ context.Context, viewerID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]struct{}{}
	for id := range s.blocks[viewerID] {
		out[id] = struct{}{}
	}
	for blocker, set := range s.blocks {
		if _, ok := set[viewerID]; ok {
			out[blocker] = struct{}{}
		}
	}
	return out, nil
}

// --- feed.AuthorDirectory ---

// AuthorsByID batch-resolves author cards; unknown IDs are absent.
func (s *Store) AuthorsByID(_ context.Context, authorIDs []string) (map[string]models.AuthorCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.AuthorCard, len(authorIDs))
	for _, id := range authorIDs {
		if card, ok := s.authors[id]; ok {
			out[id] = card
		}
	}
	return out, nil
}

// --- feed.ProfileStore ---

// GetProfile returns the viewer's taste profile or feed.ErrProfileNotFound.
func (s *Store) GetProfile(_ context.Context, viewerID string) (*models.TasteProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[viewerID]
	if !ok {
		return nil, fmt.Errorf("%w: viewer %s", feed.ErrProfileNotFound, viewerID)
	}
	cp := profile
	return &cp, nil
}

// PutProfile replaces the viewer's taste profile wholesale.
func (s *Store) PutProfile(_ context.Context, profile *models.TasteProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ViewerID] = *profile
	return nil
}

// --- feed.ImpressionStore ---

// MarkSeen records a (viewer, item, session) triple with a TTL and reports
// whether it was newly recorded.
func (s *Store) MarkSeen(_ context.Context, viewerID, itemID, sessionID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	key := viewerID + "\x00" + itemID + "\x00" + sessionID
	if expiry, ok := s.impressions[key]; ok && expiry.After(now) {
		return false, nil
	}
	s.impressions[key] = now.Add(ttl)
	return true, nil
}

// Unmark removes a recorded triple so it can be marked again.
func (s *Store) Unmark(_ context.Context, viewerID, itemID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.impressions, viewerID+"\x00"+itemID+"\x00"+sessionID)
	return nil
}
