// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"github.com/clipfeed/clipfeed/internal/vector"
)

// UpdateProfile folds one (embedding, engagement) observation into the
// profile and returns the result. The input profile is not mutated.
//
// This is an online, bounded, single-pass clustering scheme: it never
// recomputes from history, merging keeps the group count small, and the
// w*(1-w) curvature term keeps weight updates stable near 0 and 1 so a
// single event cannot saturate a weight.
//
// Behavior:
//   - No group clears the match threshold: a new group is appended with
//     the item embedding and the engagement as its weight.
//   - Otherwise the best-matching group (strictly highest similarity,
//     earliest index wins ties) moves toward the item by an exponential
//     moving average and its weight shifts by the curvature delta.
//   - At most one other group is merged into the updated group per
//     observation: the first remaining group whose similarity to the new
//     embedding clears the threshold.
func UpdateProfile(cfg *Config, p Profile, item vector.Embedding, engagement float64) Profile {
	bestIdx := -1
	bestScore := 0.0
	for i, group := range p.Groups {
		score := vector.Dot(item, group.Embedding)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx == -1 || bestScore < cfg.MatchThreshold {
		out := p.Clone()
		out.Groups = append(out.Groups, InterestGroup{
			Embedding: vector.Clone(item),
			Weight:    clamp(engagement, 0, 1),
		})
		return out
	}

	best := p.Groups[bestIdx]

	newEmbedding := vector.Blend(best.Embedding, item, engagement*cfg.LearningRate)
	newEmbedding = vector.Normalize(newEmbedding)

	delta := cfg.WeightDamping * weightDelta(cfg, best.Weight, engagement)
	newWeight := clamp(best.Weight+delta, 0, 1)

	// Merge pass: the first other group overlapping the moved embedding is
	// absorbed. Scan read-only, then rebuild once, instead of removing
	// elements mid-iteration.
	mergeIdx := -1
	for i, group := range p.Groups {
		if i == bestIdx || len(group.Embedding) == 0 {
			continue
		}
		if vector.Dot(group.Embedding, newEmbedding) > cfg.MatchThreshold {
			newWeight = (newWeight + group.Weight) / 2
			newEmbedding = vector.Normalize(vector.Average(newEmbedding, group.Embedding))
			mergeIdx = i
			break
		}
	}

	out := Profile{
		Groups:    make([]InterestGroup, 0, len(p.Groups)),
		UpdatedAt: p.UpdatedAt,
	}
	for i, group := range p.Groups {
		switch i {
		case mergeIdx:
			// absorbed
		case bestIdx:
			out.Groups = append(out.Groups, InterestGroup{
				Embedding: newEmbedding,
				Weight:    newWeight,
			})
		default:
			out.Groups = append(out.Groups, InterestGroup{
				Embedding: vector.Clone(group.Embedding),
				Weight:    group.Weight,
			})
		}
	}
	return out
}

// weightDelta computes the logistic-curvature weight adjustment. The
// w*(1-w) factor peaks at w=0.5 and flattens near the bounds; engagement
// below the pivot pushes the weight down, above pushes it up.
func weightDelta(cfg *Config, weight, engagement float64) float64 {
	curvature := weight * (1 - weight)
	drive := cfg.WeightAlpha * (engagement - cfg.EngagementPivot)
	return cfg.WeightScale * curvature * drive
}
