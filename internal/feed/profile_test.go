// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"math"
	"testing"

	"github.com/clipfeed/clipfeed/internal/vector"
)

func TestUpdateProfileAppendsNewGroup(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{}

	got := UpdateProfile(cfg, p, vector.Embedding{0.6, 0.8}, 0.5)

	if len(got.Groups) != 1 {
		t.Fatalf("group count = %d, want 1", len(got.Groups))
	}
	g := got.Groups[0]
	if math.Abs(g.Embedding[0]-0.6) > 1e-9 || math.Abs(g.Embedding[1]-0.8) > 1e-9 {
		t.Errorf("embedding = %v, want [0.6 0.8]", g.Embedding)
	}
	if math.Abs(g.Weight-0.5) > 1e-9 {
		t.Errorf("weight = %v, want 0.5", g.Weight)
	}
	if len(p.Groups) != 0 {
		t.Error("input profile was mutated")
	}
}

func TestUpdateProfileMatchedGroupMoves(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.5},
	}}

	got := UpdateProfile(cfg, p, vector.Embedding{0.8, 0.6}, 1.0)

	if len(got.Groups) != 1 {
		t.Fatalf("group count = %d, want 1", len(got.Groups))
	}
	g := got.Groups[0]

	// Embedding moved toward the item and stays unit length.
	if g.Embedding[1] <= 0 {
		t.Errorf("embedding did not move toward item: %v", g.Embedding)
	}
	if math.Abs(vector.Norm(g.Embedding)-1) > 1e-9 {
		t.Errorf("embedding norm = %v, want 1", vector.Norm(g.Embedding))
	}

	// High engagement (above the pivot) raises the weight.
	if g.Weight <= 0.5 {
		t.Errorf("weight = %v, want > 0.5 after engaged observation", g.Weight)
	}
}

func TestUpdateProfileLowEngagementDecaysWeight(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.5},
	}}

	got := UpdateProfile(cfg, p, vector.Embedding{1, 0}, 0.0)

	if got.Groups[0].Weight >= 0.5 {
		t.Errorf("weight = %v, want < 0.5 after unengaged observation", got.Groups[0].Weight)
	}
}

func TestUpdateProfileNoMatchBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.5},
	}}

	// Orthogonal item: similarity 0 < threshold, so a new group appends.
	got := UpdateProfile(cfg, p, vector.Embedding{0, 1}, 0.7)

	if len(got.Groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(got.Groups))
	}
	if math.Abs(got.Groups[1].Weight-0.7) > 1e-9 {
		t.Errorf("appended weight = %v, want 0.7", got.Groups[1].Weight)
	}
}

func TestUpdateProfileNegativeSimilarityNeverMatches(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{-1, 0}, Weight: 0.9},
	}}

	got := UpdateProfile(cfg, p, vector.Embedding{1, 0}, 0.5)

	if len(got.Groups) != 2 {
		t.Fatalf("group count = %d, want 2 (opposite-direction group must not match)", len(got.Groups))
	}
}

func TestUpdateProfileTieBreakLowestIndex(t *testing.T) {
	cfg := DefaultConfig()
	// Item equidistant from two orthogonal groups: both score ~0.7071,
	// the strict-greater scan must update the first.
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.5},
		{Embedding: vector.Embedding{0, 1}, Weight: 0.5},
	}}
	item := vector.Normalize(vector.Embedding{1, 1})

	got := UpdateProfile(cfg, p, item, 1.0)

	if len(got.Groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(got.Groups))
	}
	if got.Groups[0].Embedding[1] <= 0 {
		t.Errorf("first group did not move toward item: %v", got.Groups[0].Embedding)
	}
	if got.Groups[1].Embedding[0] != 0 || got.Groups[1].Embedding[1] != 1 {
		t.Errorf("second group = %v, want untouched [0 1]", got.Groups[1].Embedding)
	}
}

func TestUpdateProfileMergeReducesCountByOne(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.6},
		{Embedding: vector.Normalize(vector.Embedding{0.95, 0.3}), Weight: 0.4},
		{Embedding: vector.Embedding{0, 1}, Weight: 0.5},
	}}

	got := UpdateProfile(cfg, p, vector.Embedding{1, 0}, 0.8)

	// Group 0 absorbs group 1; the orthogonal group survives.
	if len(got.Groups) != 2 {
		t.Fatalf("group count = %d, want 2 after single merge", len(got.Groups))
	}
	if math.Abs(got.Groups[1].Weight-0.5) > 1e-9 {
		t.Errorf("unrelated group weight = %v, want 0.5 untouched", got.Groups[1].Weight)
	}
}

func TestUpdateProfileAtMostOneMerge(t *testing.T) {
	cfg := DefaultConfig()
	near := vector.Normalize(vector.Embedding{0.98, 0.2})
	p := Profile{Groups: []InterestGroup{
		{Embedding: vector.Embedding{1, 0}, Weight: 0.5},
		{Embedding: near, Weight: 0.5},
		{Embedding: near, Weight: 0.5},
	}}

	got := UpdateProfile(cfg, p, vector.Embedding{1, 0}, 0.8)

	// Both trailing groups overlap the updated one, but only the first
	// is absorbed per observation.
	if len(got.Groups) != 2 {
		t.Fatalf("group count = %d, want 2 (single merge per update)", len(got.Groups))
	}
}

func TestUpdateProfileWeightsStayBounded(t *testing.T) {
	cfg := DefaultConfig()

	p := Profile{}
	items := []vector.Embedding{
		{1, 0}, {0.99, 0.14}, {0, 1}, {0.7, 0.7}, {1, 0}, {0, -1},
	}
	engagements := []float64{1.0, 0.0, 0.9, 0.3, 1.0, 0.0}

	for round := 0; round < 50; round++ {
		for i, emb := range items {
			p = UpdateProfile(cfg, p, vector.Normalize(emb), engagements[i])
			for j, g := range p.Groups {
				if g.Weight < 0 || g.Weight > 1 {
					t.Fatalf("round %d group %d weight = %v, want in [0, 1]", round, j, g.Weight)
				}
			}
		}
	}
}

func TestWeightDelta(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		weight     float64
		engagement float64
		wantSign   int
	}{
		{"above pivot raises", 0.5, 1.0, 1},
		{"below pivot lowers", 0.5, 0.0, -1},
		{"at pivot neutral", 0.5, 0.25, 0},
		{"saturated weight frozen", 1.0, 1.0, 0},
		{"zero weight frozen", 0.0, 0.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weightDelta(cfg, tt.weight, tt.engagement)
			switch {
			case tt.wantSign > 0 && got <= 0:
				t.Errorf("weightDelta = %v, want positive", got)
			case tt.wantSign < 0 && got >= 0:
				t.Errorf("weightDelta = %v, want negative", got)
			case tt.wantSign == 0 && math.Abs(got) > 1e-12:
				t.Errorf("weightDelta = %v, want 0", got)
			}
		})
	}
}
