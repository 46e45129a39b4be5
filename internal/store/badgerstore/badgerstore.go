// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package badgerstore provides the durable BadgerDB-backed implementations of
// the taste profile store and the impression dedup store. Both survive
// restarts; impression keys carry a TTL so the dedup ledger prunes itself.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/rookery-social/rookery/internal/feed"
	"github.com/rookery-social/rookery/internal/logging"
	"github.com/rookery-social/rookery/internal/metrics"
	"github.com/rookery-social/rookery/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	profileKeyPrefix    = "profile:"
	impressionKeyPrefix = "impression:"
)

// Open opens (or creates) a Badger database at path. An empty path opens an
// in-memory database, used by tests and ephemeral deployments. Badger's own
// logger is silenced; operational signals flow through metrics instead.
func Open(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// ProfileStore is the BadgerDB-backed taste profile store.
type ProfileStore struct {
	db *badger.DB
}

// NewProfileStore creates a profile store over an open database.
func NewProfileStore(db *badger.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetProfile returns the viewer's taste profile, or feed.ErrProfileNotFound.
func (s *ProfileStore) GetProfile(_ context.Context, viewerID string) (*models.TasteProfile, error) {
	start := time.Now()

	var profile models.TasteProfile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + viewerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: viewer %s", feed.ErrProfileNotFound, viewerID)
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})

	if errors.Is(err, feed.ErrProfileNotFound) {
		metrics.RecordStoreOperation("profile", "get", time.Since(start), nil)
		return nil, err
	}
	metrics.RecordStoreOperation("profile", "get", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// PutProfile replaces the viewer's taste profile wholesale.
func (s *ProfileStore) PutProfile(_ context.Context, profile *models.TasteProfile) error {
	start := time.Now()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+profile.ViewerID), data)
	})
	metrics.RecordStoreOperation("profile", "put", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("put profile for %s: %w", profile.ViewerID, err)
	}
	return nil
}

// ImpressionStore is the BadgerDB-backed impression dedup store. Keys expire
// through Badger's native TTL, so no sweeper is needed.
type ImpressionStore struct {
	db *badger.DB
}

// NewImpressionStore creates an impression store over an open database.
func NewImpressionStore(db *badger.DB) *ImpressionStore {
	return &ImpressionStore{db: db}
}

// impressionKey builds the dedup key for a triple. The components are joined
// with NUL, which cannot appear in IDs, so triples like ("a:b", "c") and
// ("a", "b:c") never collide.
func impressionKey(viewerID, itemID, sessionID string) []byte {
	return []byte(impressionKeyPrefix + viewerID + "\x00" + itemID + "\x00" + sessionID)
}

// MarkSeen records a (viewer, item, session) triple with the given TTL and
// reports whether it was newly recorded. The read and write happen in one
// transaction, so concurrent replays of the same triple resolve to a single
// acceptance.
func (s *ImpressionStore) MarkSeen(_ context.Context, viewerID, itemID, sessionID string, ttl time.Duration) (bool, error) {
	start := time.Now()
	key := impressionKey(viewerID, itemID, sessionID)

	first := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil // duplicate within the TTL window
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get impression key: %w", err)
		}

		entry := badger.NewEntry(key, []byte{1}).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set impression key: %w", err)
		}
		first = true
		return nil
	})

	metrics.RecordStoreOperation("impression", "mark_seen", time.Since(start), err)
	if err != nil {
		return false, err
	}
	return first, nil
}

// Unmark deletes a recorded triple, rolling back a MarkSeen whose side
// effects failed. Deleting an absent key is a no-op.
func (s *ImpressionStore) Unmark(_ context.Context, viewerID, itemID, sessionID string) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(impressionKey(viewerID, itemID, sessionID))
	})
	metrics.RecordStoreOperation("impression", "unmark", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete impression key: %w", err)
	}
	return nil
}

// RunGC runs Badger's value log garbage collection until it reports nothing
// left to collect. Intended to be called periodically by the janitor.
func RunGC(db *badger.DB) {
	for {
		if err := db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Err(err).Msg("Badger value log GC failed")
			}
			return
		}
	}
}
