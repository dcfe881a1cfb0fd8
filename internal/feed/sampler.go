// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"math/rand"
)

// SampleWeighted selects min(count, len(items)) items without replacement,
// with probability proportional to each item's rank score. Probabilities
// are renormalized after every draw.
//
// If all rank scores sum to zero there is nothing to weight by, and the
// sampler degrades to uniform selection. Negative scores are treated as
// zero weight.
//
// The caller owns the random source, so tests can seed it for
// deterministic draws.
func SampleWeighted(rng *rand.Rand, items []RankResult, count int) []RankResult {
	n := len(items)
	if count > n {
		count = n
	}
	if count <= 0 {
		return []RankResult{}
	}

	weights := make([]float64, n)
	var total float64
	for i, item := range items {
		if item.RankScore > 0 {
			weights[i] = item.RankScore
			total += item.RankScore
		}
	}

	if total == 0 {
		return sampleUniform(rng, items, count)
	}

	// Work on an index permutation so the input slice stays untouched.
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	selected := make([]RankResult, 0, count)
	for len(selected) < count {
		r := rng.Float64() * total

		pick := len(remaining) - 1
		var cum float64
		for j, idx := range remaining {
			cum += weights[idx]
			if r < cum {
				pick = j
				break
			}
		}

		idx := remaining[pick]
		selected = append(selected, items[idx])
		total -= weights[idx]
		remaining = append(remaining[:pick], remaining[pick+1:]...)

		// All remaining weight may be zero once the scored items are
		// exhausted; fill the rest uniformly.
		if total <= 0 && len(selected) < count {
			rest := make([]RankResult, len(remaining))
			for j, ri := range remaining {
				rest[j] = items[ri]
			}
			selected = append(selected, sampleUniform(rng, rest, count-len(selected))...)
			break
		}
	}

	return selected
}

// sampleUniform picks count items uniformly at random without replacement.
func sampleUniform(rng *rand.Rand, items []RankResult, count int) []RankResult {
	perm := rng.Perm(len(items))
	out := make([]RankResult, count)
	for i := 0; i < count; i++ {
		out[i] = items[perm[i]]
	}
	return out
}
