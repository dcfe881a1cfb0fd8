// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clipfeed/clipfeed/internal/metrics"
)

// Deps carries the engine's collaborators. Profiles and Candidates are
// required; Cache and Catalog are optional (no cache means every feed
// request recomputes, no catalog disables preference reporting).
type Deps struct {
	Profiles   ProfileStore
	Candidates CandidateSource
	Cache      RankingCache
	Catalog    Catalog

	// Rand overrides the engine's random source. Tests inject a seeded
	// source for deterministic sampling.
	Rand *rand.Rand
}

// Engine owns the interest-modeling-and-ranking pipeline: it folds
// engagement events into per-user profiles, ranks candidates, and samples
// delivery batches. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	deps   Deps

	// rng backs the weighted sampler; rngMu serializes draws.
	rng   *rand.Rand
	rngMu sync.Mutex

	// userLocks serializes profile read-modify-write per user.
	// Different users never share a lock. Entries are kept for the
	// process lifetime: one mutex per user ever seen, a few dozen bytes
	// each, far below the footprint of the profiles themselves.
	userMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewEngine creates a new feed engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Deps, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if deps.Candidates == nil {
		return nil, fmt.Errorf("candidate source is required")
	}

	rng := deps.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = 42
		}
		rng = rand.New(rand.NewSource(seed)) //nolint:gosec // sampling weights, not secrets
	}

	return &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "feed").Logger(),
		deps:      deps,
		rng:       rng,
		userLocks: make(map[string]*sync.Mutex),
	}, nil
}

// RecordEngagement folds one engagement event into the user's interest
// profile and marks the item watched. The user's first view of an item
// (with more than a second of watch time) also increments the item's view
// count and accumulated watch time. Updates for the same user are
// serialized; a concurrent feed request may still serve a ranking cached
// before this update for up to the cache TTL.
func (e *Engine) RecordEngagement(ctx context.Context, userID, itemID string, ev EngagementEvent) error {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	item, err := e.deps.Candidates.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	first, err := e.deps.Candidates.MarkWatched(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}

	// A first view with meaningful watch time feeds the item's public
	// counters, so engagementRate stays live without an external writer.
	// Sub-second glimpses don't count as views.
	if first && ev.WatchTimeSeconds > 1 {
		item.Views++
		item.TotalWatchTimeSeconds += ev.WatchTimeSeconds
		if err := e.deps.Candidates.PutItem(ctx, item); err != nil {
			return fmt.Errorf("update item counters: %w", err)
		}
	}

	if ev.ItemDurationMillis <= 0 {
		ev.ItemDurationMillis = item.DurationMillis
	}
	engagement := ScoreEngagement(e.config, ev)

	profile, err := e.deps.Profiles.LoadProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	before := len(profile.Groups)
	updated := UpdateProfile(e.config, profile, item.Embedding, engagement)
	updated.UpdatedAt = time.Now()

	if err := e.deps.Profiles.SaveProfile(ctx, userID, updated); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	result := "updated"
	switch {
	case len(updated.Groups) > before:
		result = "appended"
	case len(updated.Groups) < before:
		result = "merged"
	}
	metrics.ProfileUpdates.WithLabelValues(result).Inc()
	metrics.ProfileGroups.Observe(float64(len(updated.Groups)))

	e.logger.Debug().
		Str("user_id", userID).
		Str("item_id", itemID).
		Float64("engagement", engagement).
		Int("groups", len(updated.Groups)).
		Str("result", result).
		Msg("engagement recorded")

	return nil
}

// Feed returns a sampled batch of ranked items for the user.
//
// The ranking itself is cached per user; the visibility filter chain and
// sampling run on every request so a cache hit never resurfaces watched,
// reported, blocked or on-screen items even when the cached list is stale.
func (e *Engine) Feed(ctx context.Context, req FeedRequest) (*FeedResponse, error) {
	start := time.Now()
	req = e.prepareRequest(req)

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()

	watched, err := e.deps.Candidates.WatchedIDs(ctx, req.UserID)
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("watched ids: %w", err)
	}

	ranking, cacheHit, err := e.getRanking(ctx, req.UserID, watched, req.BatchSize)
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	vis, err := e.deps.Candidates.Visibility(ctx, req.UserID)
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("visibility: %w", err)
	}

	eligible := e.filterVisible(ranking.Results, req, watched, vis)

	var scoreSum float64
	for _, r := range eligible {
		if r.RankScore > 0 {
			scoreSum += r.RankScore
		}
	}
	if scoreSum == 0 && len(eligible) > 0 {
		metrics.SamplerUniformFallbacks.Inc()
	}

	e.rngMu.Lock()
	batch := SampleWeighted(e.rng, eligible, req.BatchSize)
	e.rngMu.Unlock()

	metrics.FeedRequests.WithLabelValues("ok").Inc()
	logger.Debug().
		Bool("cache_hit", cacheHit).
		Int("ranked", len(ranking.Results)).
		Int("eligible", len(eligible)).
		Int("returned", len(batch)).
		Msg("feed served")

	return &FeedResponse{
		Items:       batch,
		TotalRanked: len(ranking.Results),
		Eligible:    len(eligible),
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			CacheHit:  cacheHit,
			LatencyMS: time.Since(start).Milliseconds(),
			Timestamp: time.Now(),
		},
	}, nil
}

// Preferences projects the user's profile onto the category catalog and
// returns a distribution over category labels summing to 1.
func (e *Engine) Preferences(ctx context.Context, userID string) (map[string]float64, error) {
	if e.deps.Catalog == nil {
		return nil, fmt.Errorf("category catalog not configured")
	}

	profile, err := e.deps.Profiles.LoadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	return ReportPreferences(e.config, profile, e.deps.Catalog.Categories()), nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// prepareRequest applies batch defaults and generates a request id.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req FeedRequest) FeedRequest {
	if req.BatchSize <= 0 {
		req.BatchSize = e.config.DefaultBatchSize
	}
	if req.BatchSize > e.config.MaxBatchSize {
		req.BatchSize = e.config.MaxBatchSize
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}

// getRanking returns the user's ranking, serving from cache when valid.
//
// On a miss it lists candidates excluding the watched set, falls back to
// the full pool when too few unwatched candidates remain (better to show
// watched content than an empty feed), ranks everything against the
// current profile, and stores the sorted result for the cache TTL.
func (e *Engine) getRanking(ctx context.Context, userID string, watched map[string]struct{}, batchSize int) (*Ranking, bool, error) {
	if e.deps.Cache != nil {
		if cached, ok := e.deps.Cache.Get(userID); ok {
			metrics.RankingCacheHits.Inc()
			return cached, true, nil
		}
		metrics.RankingCacheMisses.Inc()
	}

	start := time.Now()

	candidates, err := e.deps.Candidates.ListCandidates(ctx, watched)
	if err != nil {
		return nil, false, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) < batchSize {
		candidates, err = e.deps.Candidates.ListCandidates(ctx, nil)
		if err != nil {
			return nil, false, fmt.Errorf("list all candidates: %w", err)
		}
	}

	profile, err := e.deps.Profiles.LoadProfile(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}

	now := time.Now()
	results := make([]RankResult, 0, len(candidates))
	for _, item := range candidates {
		// Ranking mutates nothing, so abandoning a request between
		// candidate evaluations is always safe.
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		results = append(results, RankItem(e.config, profile, item, now))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RankScore > results[j].RankScore
	})

	ranking := &Ranking{Results: results, Watched: watched}
	if e.deps.Cache != nil {
		e.deps.Cache.Set(userID, ranking, e.config.CacheTTL)
	}

	metrics.RankingDuration.Observe(time.Since(start).Seconds())
	return ranking, false, nil
}

// filterVisible applies the feed visibility chain: drop watched items,
// items that no longer exist, items reported more than once, items from
// blocked users, the requester's own uploads, request-level exclusions,
// and (optionally) everything from uploaders the requester doesn't follow.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) filterVisible(results []RankResult, req FeedRequest, watched map[string]struct{}, vis Visibility) []RankResult {
	excluded := make(map[string]struct{}, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	out := make([]RankResult, 0, len(results))
	for _, r := range results {
		id := r.Item.ID
		uploader := r.Item.UploaderID

		if _, ok := watched[id]; ok {
			continue
		}
		if _, ok := vis.Existing[id]; !ok {
			continue
		}
		if _, ok := vis.Reported[id]; ok {
			continue
		}
		if _, ok := vis.Blocked[uploader]; ok {
			continue
		}
		if uploader == req.UserID {
			continue
		}
		if _, ok := excluded[id]; ok {
			continue
		}
		if req.FollowersOnly {
			if _, ok := vis.Following[uploader]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// userLock returns the mutex serializing updates for one user.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.userMu.Lock()
	defer e.userMu.Unlock()

	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}
