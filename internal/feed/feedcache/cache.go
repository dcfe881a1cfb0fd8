// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package feedcache provides the in-memory TTL cache backing per-user
// rankings. The cache is a pure derived store: any entry can be dropped at
// any time and the engine recomputes it.
package feedcache

import (
	"sync"
	"time"

	"github.com/clipfeed/clipfeed/internal/feed"
)

// entry is one cached ranking with its expiration.
type entry struct {
	ranking   *feed.Ranking
	expiresAt time.Time
}

// Cache is a thread-safe per-user ranking cache with TTL expiration.
// Expired entries are dropped lazily on read and in bulk by Sweep, which
// the maintenance service calls periodically.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	stats   Stats
	statsMu sync.Mutex
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int64
	LastSweep time.Time
}

// New creates an empty ranking cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached ranking for the user, if present and unexpired.
func (c *Cache) Get(userID string) (*feed.Ranking, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry since the read lock was dropped, and a
		// fresh entry must not be deleted.
		c.mu.Lock()
		cur, still := c.entries[userID]
		if still && time.Now().After(cur.expiresAt) {
			delete(c.entries, userID)
			c.mu.Unlock()
			c.recordMiss()
			c.recordEvictions(1)
			return nil, false
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return e.ranking, true
}

// Set stores a ranking for the user with the given TTL. Concurrent
// writers race benignly; last writer wins.
func (c *Cache) Set(userID string, r *feed.Ranking, ttl time.Duration) {
	c.mu.Lock()
	c.entries[userID] = entry{
		ranking:   r,
		expiresAt: time.Now().Add(ttl),
	}
	keys := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Keys = keys
	c.statsMu.Unlock()
}

// Delete removes the user's cached ranking.
func (c *Cache) Delete(userID string) {
	c.mu.Lock()
	_, existed := c.entries[userID]
	delete(c.entries, userID)
	c.mu.Unlock()

	if existed {
		c.recordEvictions(1)
	}
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	evicted := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	keys := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Evictions += int64(evicted)
	c.stats.Keys = keys
	c.stats.LastSweep = now
	c.statsMu.Unlock()

	return evicted
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage over all lookups.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total) * 100
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *Cache) recordEvictions(n int64) {
	c.statsMu.Lock()
	c.stats.Evictions += n
	c.statsMu.Unlock()
}
