// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"time"

	"github.com/clipfeed/clipfeed/internal/vector"
)

// unprocessedRankScore is the fixed floor returned for items whose
// embedding has not been produced yet, keeping them rankable instead of
// permanently invisible.
const unprocessedRankScore = 1.0

// RankItem scores one candidate item against a profile, returning the
// interest-match score and the combined rank score.
//
// Items with an empty embedding (not yet processed) return exactly
// (0, unprocessedRankScore) regardless of other metadata.
func RankItem(cfg *Config, p Profile, item Item, now time.Time) RankResult {
	result := RankResult{Item: item}

	if len(item.Embedding) == 0 {
		result.RankScore = unprocessedRankScore
		return result
	}

	interest := ScoreInterest(cfg, p.Groups, item.Embedding, cfg.MatchThreshold)
	recency := recencyScore(cfg, item.UploadedAt, now)
	rate := engagementRate(item)

	result.InterestScore = interest
	result.InterestPercent = interest * 100
	result.RankScore = cfg.InterestWeight*interest +
		cfg.RecencyWeight*recency +
		cfg.EngagementRateWeight*rate
	return result
}

// ScoreInterest measures how well an embedding matches the profile's
// interest groups.
//
// Groups whose similarity clears the threshold contribute
// similarity*weight to an accumulated score. Matching two or more groups
// divides the sum by count/2, rewarding breadth of interest while capping
// the result at 1. With no group above the threshold, the best
// similarity*weight seen anywhere is returned as a partial-match
// fallback.
func ScoreInterest(cfg *Config, groups []InterestGroup, emb vector.Embedding, threshold float64) float64 {
	var accumulated, best float64
	similar := 0

	for _, group := range groups {
		if len(group.Embedding) == 0 {
			continue
		}

		similarity := vector.Dot(group.Embedding, emb)
		if similarity > threshold {
			similar++
			accumulated += similarity * group.Weight
		}
		if similarity*group.Weight > best {
			best = similarity * group.Weight
		}
	}

	switch {
	case similar > 1:
		return min(accumulated/(float64(similar)/2.0), 1)
	case similar == 0:
		return best
	default:
		return accumulated
	}
}

// recencyScore decays linearly from 1 to 0 over the recency horizon.
// Future-dated uploads are clamped to 1 rather than inflating the score.
func recencyScore(cfg *Config, uploadedAt, now time.Time) float64 {
	days := now.Sub(uploadedAt).Hours() / 24
	score := (cfg.RecencyHorizonDays - days) / cfg.RecencyHorizonDays
	return clamp(score, 0, 1)
}

// engagementRate is the fraction of views that engaged with the item.
func engagementRate(item Item) float64 {
	if item.Views <= 0 {
		return 0
	}
	return float64(item.Likes+item.Comments) / float64(item.Views)
}
