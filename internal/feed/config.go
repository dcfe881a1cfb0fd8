// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"fmt"
	"time"
)

// Config contains all tunables for the interest engine.
type Config struct {
	// MatchThreshold is the similarity above which an item matches an
	// interest group, for both profile updates and interest scoring.
	// Default: 0.55.
	MatchThreshold float64 `json:"match_threshold"`

	// PreferenceThreshold is the looser similarity threshold used when
	// projecting a profile onto the category catalog, so mid-similarity
	// interests still accumulate into the distribution. Default: 0.25.
	PreferenceThreshold float64 `json:"preference_threshold"`

	// LearningRate scales how far a matched group's embedding moves
	// toward an observed item. Default: 0.1.
	LearningRate float64 `json:"learning_rate"`

	// WeightAlpha scales the engagement term of the weight delta.
	// Default: 0.1.
	WeightAlpha float64 `json:"weight_alpha"`

	// WeightScale scales the logistic-curvature weight delta.
	// Default: 10.
	WeightScale float64 `json:"weight_scale"`

	// WeightDamping is the final damping applied to the weight delta.
	// Default: 0.5.
	WeightDamping float64 `json:"weight_damping"`

	// EngagementPivot is the engagement level below which weights decay.
	// Default: 0.25.
	EngagementPivot float64 `json:"engagement_pivot"`

	// WatchPercentWeight, TimeFactorWeight and InteractionWeight blend
	// the engagement score components. Defaults: 0.3, 0.3, 0.4.
	WatchPercentWeight float64 `json:"watch_percent_weight"`
	TimeFactorWeight   float64 `json:"time_factor_weight"`
	InteractionWeight  float64 `json:"interaction_weight"`

	// MaxWatchTimeSeconds caps the watch-time reward. Default: 120.
	MaxWatchTimeSeconds float64 `json:"max_watch_time_seconds"`

	// InterestWeight, RecencyWeight and EngagementRateWeight blend the
	// rank score components. Defaults: 0.6, 0.2, 0.2.
	InterestWeight       float64 `json:"interest_weight"`
	RecencyWeight        float64 `json:"recency_weight"`
	EngagementRateWeight float64 `json:"engagement_rate_weight"`

	// RecencyHorizonDays is the linear decay window for the recency
	// score. Default: 10.
	RecencyHorizonDays float64 `json:"recency_horizon_days"`

	// CacheTTL is how long a computed ranking stays valid. A profile
	// update never invalidates it early; staleness up to the TTL is an
	// accepted trade-off. Default: 30m.
	CacheTTL time.Duration `json:"cache_ttl"`

	// DefaultBatchSize is the batch size when a request omits one.
	// Default: 5.
	DefaultBatchSize int `json:"default_batch_size"`

	// MaxBatchSize caps the requested batch size. Default: 20.
	MaxBatchSize int `json:"max_batch_size"`

	// SoftmaxTemperature sharpens the preference distribution; lower
	// values concentrate mass on the top categories. Default: 0.1.
	SoftmaxTemperature float64 `json:"softmax_temperature"`

	// Seed is the random seed for the weighted sampler. If zero, a
	// fixed default seed is used so runs are deterministic.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the engine defaults. The numeric constants mirror
// the tuning the scoring model was calibrated with.
func DefaultConfig() *Config {
	return &Config{
		MatchThreshold:       0.55,
		PreferenceThreshold:  0.25,
		LearningRate:         0.1,
		WeightAlpha:          0.1,
		WeightScale:          10,
		WeightDamping:        0.5,
		EngagementPivot:      0.25,
		WatchPercentWeight:   0.3,
		TimeFactorWeight:     0.3,
		InteractionWeight:    0.4,
		MaxWatchTimeSeconds:  120,
		InterestWeight:       0.6,
		RecencyWeight:        0.2,
		EngagementRateWeight: 0.2,
		RecencyHorizonDays:   10,
		CacheTTL:             30 * time.Minute,
		DefaultBatchSize:     5,
		MaxBatchSize:         20,
		SoftmaxTemperature:   0.1,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MatchThreshold < -1 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in [-1, 1], got %v", c.MatchThreshold)
	}
	if c.PreferenceThreshold < -1 || c.PreferenceThreshold > 1 {
		return fmt.Errorf("preference_threshold must be in [-1, 1], got %v", c.PreferenceThreshold)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %v", c.LearningRate)
	}
	if c.WeightDamping < 0 || c.WeightDamping > 1 {
		return fmt.Errorf("weight_damping must be in [0, 1], got %v", c.WeightDamping)
	}
	if c.MaxWatchTimeSeconds <= 0 {
		return fmt.Errorf("max_watch_time_seconds must be positive, got %v", c.MaxWatchTimeSeconds)
	}
	if c.RecencyHorizonDays <= 0 {
		return fmt.Errorf("recency_horizon_days must be positive, got %v", c.RecencyHorizonDays)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL)
	}
	if c.DefaultBatchSize <= 0 {
		return fmt.Errorf("default_batch_size must be positive, got %d", c.DefaultBatchSize)
	}
	if c.MaxBatchSize < c.DefaultBatchSize {
		return fmt.Errorf("max_batch_size %d must be >= default_batch_size %d", c.MaxBatchSize, c.DefaultBatchSize)
	}
	if c.SoftmaxTemperature <= 0 {
		return fmt.Errorf("softmax_temperature must be positive, got %v", c.SoftmaxTemperature)
	}

	for _, w := range []struct {
		name  string
		value float64
	}{
		{"watch_percent_weight", c.WatchPercentWeight},
		{"time_factor_weight", c.TimeFactorWeight},
		{"interaction_weight", c.InteractionWeight},
		{"interest_weight", c.InterestWeight},
		{"recency_weight", c.RecencyWeight},
		{"engagement_rate_weight", c.EngagementRateWeight},
	} {
		if w.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", w.name, w.value)
		}
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
