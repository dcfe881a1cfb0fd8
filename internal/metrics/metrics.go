// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package metrics provides Prometheus instrumentation for the feed path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequests counts feed requests by outcome ("ok", "error").
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed requests",
		},
		[]string{"outcome"},
	)

	// RankingCacheHits counts ranking cache hits.
	RankingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_ranking_cache_hits_total",
			Help: "Total number of ranking cache hits",
		},
	)

	// RankingCacheMisses counts ranking cache misses.
	RankingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_ranking_cache_misses_total",
			Help: "Total number of ranking cache misses",
		},
	)

	// RankingDuration observes how long a full ranking recompute takes.
	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_ranking_duration_seconds",
			Help:    "Duration of full candidate ranking recomputation",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ProfileUpdates counts engagement observations folded into profiles,
	// by result ("appended", "updated", "merged").
	ProfileUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_profile_updates_total",
			Help: "Total number of profile updates by result",
		},
		[]string{"result"},
	)

	// ProfileGroups observes the interest group count after each update.
	ProfileGroups = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_profile_groups",
			Help:    "Interest group count per profile after update",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	// SamplerUniformFallbacks counts batches drawn uniformly because all
	// rank scores were zero.
	SamplerUniformFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_sampler_uniform_fallbacks_total",
			Help: "Total number of batches that fell back to uniform sampling",
		},
	)
)
