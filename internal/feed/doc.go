// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package feed implements the interest-modeling-and-ranking engine behind
// the personalized video feed.
//
// The engine maintains a small per-user model of interest: an ordered set
// of weighted embedding clusters ("interest groups"). Each engagement
// event is scored into a [0, 1] strength and folded into the profile by an
// online clustering update - the best-matching group moves toward the
// observed item by an exponential moving average, its weight shifts along
// a logistic-curvature response, and overlapping groups merge (at most one
// merge per observation).
//
// Feed requests rank every visible candidate against the profile with a
// weighted blend of interest match, upload recency, and the item's
// engagement rate. Sorted rankings are cached per user for a bounded
// window; the visibility filter chain and probability-proportional
// sampling run on every request, so a cached ranking can be stale relative
// to the profile (accepted, bounded by the TTL) but never resurfaces
// watched or hidden items.
//
// All external fetches go through the collaborator interfaces in Deps;
// nothing in this package touches the network or disk directly.
package feed
