// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"math"
	"testing"
)

func TestScoreEngagement(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		ev   EngagementEvent
		want float64
	}{
		{
			name: "half watched with like",
			ev: EngagementEvent{
				WatchTimeSeconds:   30,
				Liked:              true,
				ItemDurationMillis: 60000,
			},
			// 0.3*0.5 + 0.3*(sqrt(30)/sqrt(120)) + 0.4*(2/6)
			want: 0.3*0.5 + 0.3*0.5 + 0.4*(2.0/6.0),
		},
		{
			name: "no watch no interactions",
			ev: EngagementEvent{
				WatchTimeSeconds:   0,
				ItemDurationMillis: 60000,
			},
			want: 0,
		},
		{
			name: "full engagement",
			ev: EngagementEvent{
				WatchTimeSeconds:   120,
				Liked:              true,
				Commented:          true,
				ViewedComments:     true,
				ItemDurationMillis: 120000,
			},
			want: 1,
		},
		{
			name: "zero duration scores zero",
			ev: EngagementEvent{
				WatchTimeSeconds:   30,
				Liked:              true,
				ItemDurationMillis: 0,
			},
			want: 0,
		},
		{
			name: "negative duration scores zero",
			ev: EngagementEvent{
				WatchTimeSeconds:   30,
				ItemDurationMillis: -5,
			},
			want: 0,
		},
		{
			name: "watch percentage capped at one",
			ev: EngagementEvent{
				WatchTimeSeconds:   200,
				ItemDurationMillis: 10000,
			},
			// watchPercentage capped at 1, timeFactor capped at sqrt(120)/sqrt(120)=1
			want: 0.3*1 + 0.3*1,
		},
		{
			name: "comment outweighs like",
			ev: EngagementEvent{
				WatchTimeSeconds:   0,
				Commented:          true,
				ItemDurationMillis: 60000,
			},
			want: 0.4 * (3.0 / 6.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreEngagement(cfg, tt.ev)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ScoreEngagement() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreEngagementBounds(t *testing.T) {
	cfg := DefaultConfig()

	events := []EngagementEvent{
		{WatchTimeSeconds: 1e6, Liked: true, Commented: true, ViewedComments: true, ItemDurationMillis: 1},
		{WatchTimeSeconds: -10, ItemDurationMillis: 60000},
		{WatchTimeSeconds: 0.001, ItemDurationMillis: 1},
	}

	for _, ev := range events {
		got := ScoreEngagement(cfg, ev)
		if got < 0 || got > 1 {
			t.Errorf("ScoreEngagement(%+v) = %v, want in [0, 1]", ev, got)
		}
	}
}

func TestScoreEngagementScenario(t *testing.T) {
	// 60s video, watched 30s, liked only:
	// watchPercentage = 0.5, timeFactor = 0.5, interaction = 2/6,
	// engagement = 0.3*0.5 + 0.3*0.5 + 0.4*0.333... ~= 0.4333
	cfg := DefaultConfig()
	ev := EngagementEvent{
		WatchTimeSeconds:   30,
		Liked:              true,
		ItemDurationMillis: 60000,
	}

	got := ScoreEngagement(cfg, ev)
	if math.Abs(got-0.43333333) > 1e-6 {
		t.Errorf("ScoreEngagement() = %v, want ~0.4333", got)
	}
}
