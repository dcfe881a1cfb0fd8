// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package storage provides the BadgerDB-backed repositories the feed
// engine depends on: user profiles, content items, watch history, and the
// report/block/follow sets that drive feed visibility.
//
// Values are JSON blobs under typed key prefixes. The store implements
// feed.ProfileStore and feed.CandidateSource.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/clipfeed/clipfeed/internal/feed"
)

// Key prefixes for BadgerDB storage.
const (
	profileKeyPrefix = "profile:"
	itemKeyPrefix    = "item:"
	watchedKeyPrefix = "watched:" // watched:<user>:<item>
	reportKeyPrefix  = "report:"  // report:<item>:<reporter>
	blockKeyPrefix   = "block:"   // block:<blocker>:<blocked>
	followKeyPrefix  = "follow:"  // follow:<follower>:<followee>
)

// reportVisibilityThreshold is how many distinct reports hide an item
// from feeds. A single report is not enough.
const reportVisibilityThreshold = 1

// ErrItemNotFound is returned when a content item does not exist.
var ErrItemNotFound = errors.New("item not found")

// Store is a BadgerDB-backed implementation of the engine's repositories.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store at dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return NewWithDB(db, logger), nil
}

// OpenInMemory opens an in-memory store, used by tests and ephemeral runs.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenInMemory(logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an already-open badger database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWithDB(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs one round of badger value-log garbage collection.
// Nothing to collect (ErrNoRewrite) and in-memory mode, which has no
// value log at all, are both no-ops.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}

// LoadProfile returns the user's interest profile. A missing profile is
// an empty one, not an error.
func (s *Store) LoadProfile(_ context.Context, userID string) (feed.Profile, error) {
	var profile feed.Profile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return feed.Profile{}, err
	}

	return profile, nil
}

// SaveProfile persists the user's interest profile.
func (s *Store) SaveProfile(_ context.Context, userID string, p feed.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+userID), data)
	})
}

// PutItem stores a content item record.
func (s *Store) PutItem(_ context.Context, item feed.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemKeyPrefix+item.ID), data)
	})
}

// GetItem returns one item by id.
func (s *Store) GetItem(_ context.Context, itemID string) (feed.Item, error) {
	var out feed.Item

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(itemKeyPrefix + itemID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return feed.Item{}, err
	}

	return out, nil
}

// DeleteItem removes a content item record.
func (s *Store) DeleteItem(_ context.Context, itemID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(itemKeyPrefix + itemID))
	})
}

// ListCandidates returns all items not in exclude. A nil or empty exclude
// set returns the full pool.
func (s *Store) ListCandidates(_ context.Context, exclude map[string]struct{}) ([]feed.Item, error) {
	items := make([]feed.Item, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id := strings.TrimPrefix(string(it.Item().Key()), itemKeyPrefix)
			if _, skip := exclude[id]; skip {
				continue
			}

			var item feed.Item
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode item %s: %w", id, err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// MarkWatched records that the user watched the item and reports whether
// this was the first watch. Idempotent; repeat watches report false.
func (s *Store) MarkWatched(_ context.Context, userID, itemID string) (bool, error) {
	first := false

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(watchedKeyPrefix + userID + ":" + itemID)
		_, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			first = true
		case err != nil:
			return fmt.Errorf("get watched: %w", err)
		}
		return txn.Set(key, nil)
	})
	if err != nil {
		return false, err
	}

	return first, nil
}

// WatchedIDs returns the ids of items the user has watched.
func (s *Store) WatchedIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	prefix := watchedKeyPrefix + userID + ":"
	out := make(map[string]struct{})

	err := s.collectKeySuffixes(prefix, func(suffix string) {
		out[suffix] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordReport records a report against an item by a reporter. A user
// reporting the same item twice counts once.
func (s *Store) RecordReport(_ context.Context, itemID, reporterID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(reportKeyPrefix+itemID+":"+reporterID), nil)
	})
}

// Block records that blocker has blocked blocked.
func (s *Store) Block(_ context.Context, blockerID, blockedID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(blockKeyPrefix+blockerID+":"+blockedID), nil)
	})
}

// Follow records that follower follows followee.
func (s *Store) Follow(_ context.Context, followerID, followeeID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(followKeyPrefix+followerID+":"+followeeID), nil)
	})
}

// Visibility returns the exclusion sets for one user's feed: existing
// item ids, items over the report threshold, users blocked in either
// direction, and users the requester follows.
func (s *Store) Visibility(_ context.Context, userID string) (feed.Visibility, error) {
	vis := feed.Visibility{
		Existing:  make(map[string]struct{}),
		Reported:  make(map[string]struct{}),
		Blocked:   make(map[string]struct{}),
		Following: make(map[string]struct{}),
	}

	err := s.db.View(func(txn *badger.Txn) error {
		if err := collectInTxn(txn, itemKeyPrefix, func(suffix string) {
			vis.Existing[suffix] = struct{}{}
		}); err != nil {
			return err
		}

		// Count distinct reporters per item; only items over the
		// threshold are hidden.
		reportCounts := make(map[string]int)
		if err := collectInTxn(txn, reportKeyPrefix, func(suffix string) {
			itemID, _, ok := strings.Cut(suffix, ":")
			if ok {
				reportCounts[itemID]++
			}
		}); err != nil {
			return err
		}
		for itemID, count := range reportCounts {
			if count > reportVisibilityThreshold {
				vis.Reported[itemID] = struct{}{}
			}
		}

		// Blocks apply in both directions: users this user blocked and
		// users who blocked this user.
		if err := collectInTxn(txn, blockKeyPrefix, func(suffix string) {
			blocker, blocked, ok := strings.Cut(suffix, ":")
			if !ok {
				return
			}
			if blocker == userID {
				vis.Blocked[blocked] = struct{}{}
			}
			if blocked == userID {
				vis.Blocked[blocker] = struct{}{}
			}
		}); err != nil {
			return err
		}

		return collectInTxn(txn, followKeyPrefix+userID+":", func(suffix string) {
			vis.Following[suffix] = struct{}{}
		})
	})
	if err != nil {
		return feed.Visibility{}, err
	}

	return vis, nil
}

// collectKeySuffixes iterates keys under prefix in a read transaction and
// passes each key's suffix (key minus prefix) to fn.
func (s *Store) collectKeySuffixes(prefix string, fn func(suffix string)) error {
	return s.db.View(func(txn *badger.Txn) error {
		return collectInTxn(txn, prefix, fn)
	})
}

// collectInTxn is collectKeySuffixes inside an existing transaction.
func collectInTxn(txn *badger.Txn, prefix string, fn func(suffix string)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		fn(strings.TrimPrefix(string(it.Item().Key()), prefix))
	}
	return nil
}
