// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import "math"

// Interaction contribution weights. Commenting is the strongest signal;
// the sum (6.0) is the normalization ceiling.
const (
	likeWeight           = 2.0
	commentWeight        = 3.0
	viewedCommentsWeight = 1.0
	maxInteractionScore  = likeWeight + commentWeight + viewedCommentsWeight
)

// ScoreEngagement maps a raw interaction event to a normalized engagement
// strength in [0, 1].
//
// The score blends three components: the fraction of the item watched, a
// concave watch-time reward capped at cfg.MaxWatchTimeSeconds (square
// root, so marathon watches see diminishing returns), and a weighted
// interaction score from likes, comments and comment views.
//
// A non-positive item duration scores 0; degenerate content never
// produces a division by zero.
func ScoreEngagement(cfg *Config, ev EngagementEvent) float64 {
	if ev.ItemDurationMillis <= 0 {
		return 0
	}

	watchTime := math.Max(ev.WatchTimeSeconds, 0)
	durationSeconds := float64(ev.ItemDurationMillis) / 1000.0
	watchPercentage := math.Min(watchTime/durationSeconds, 1.0)

	cappedWatch := math.Min(watchTime, cfg.MaxWatchTimeSeconds)
	timeFactor := math.Sqrt(cappedWatch) / math.Sqrt(cfg.MaxWatchTimeSeconds)

	var interaction float64
	if ev.Liked {
		interaction += likeWeight
	}
	if ev.Commented {
		interaction += commentWeight
	}
	if ev.ViewedComments {
		interaction += viewedCommentsWeight
	}
	interaction /= maxInteractionScore

	engagement := cfg.WatchPercentWeight*watchPercentage +
		cfg.TimeFactorWeight*timeFactor +
		cfg.InteractionWeight*interaction

	return clamp(engagement, 0, 1)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
