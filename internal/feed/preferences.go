// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import "math"

// ReportPreferences projects a profile onto the category catalog and
// returns a probability-like distribution over category labels.
//
// Each category embedding is scored with ScoreInterest at the looser
// PreferenceThreshold, so several mid-similarity interest groups still
// accumulate instead of collapsing to the single-best fallback. All
// scores are shifted so the minimum becomes zero, and a
// temperature-scaled softmax turns them into a distribution summing
// to 1. The low default temperature sharply favors the top categories.
//
// An empty catalog returns an empty map.
func ReportPreferences(cfg *Config, p Profile, categories []Category) map[string]float64 {
	if len(categories) == 0 {
		return map[string]float64{}
	}

	scores := make([]float64, len(categories))
	minScore := math.Inf(1)
	for i, cat := range categories {
		scores[i] = ScoreInterest(cfg, p.Groups, cat.Embedding, cfg.PreferenceThreshold)
		if scores[i] < minScore {
			minScore = scores[i]
		}
	}

	for i := range scores {
		scores[i] -= minScore
	}

	percentages := softmax(scores, cfg.SoftmaxTemperature)

	out := make(map[string]float64, len(categories))
	for i, cat := range categories {
		out[cat.Label] = percentages[i]
	}
	return out
}

// softmax computes a temperature-scaled softmax. Inputs are shifted by
// their maximum before exponentiation for numerical stability.
func softmax(scores []float64, temperature float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp((s - maxScore) / temperature)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
