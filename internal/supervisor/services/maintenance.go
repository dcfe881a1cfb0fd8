// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package services contains the suture-supervised background services of
// the clipfeed daemon.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper removes expired entries and reports how many were dropped.
type Sweeper interface {
	Sweep() int
}

// Collector runs one round of storage garbage collection.
type Collector interface {
	RunGC(discardRatio float64) error
}

// MaintenanceService periodically sweeps the ranking cache and runs
// storage value-log garbage collection. It runs under the supervision
// tree and restarts on failure.
type MaintenanceService struct {
	cache        Sweeper
	store        Collector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewMaintenanceService creates the maintenance service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(cache Sweeper, store Collector, interval time.Duration, discardRatio float64, logger zerolog.Logger) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &MaintenanceService{
		cache:        cache,
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "maintenance").Logger(),
	}
}

// Serve implements suture.Service. It runs maintenance rounds on the
// configured interval until the context is cancelled.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Float64("gc_discard_ratio", s.discardRatio).
		Msg("Maintenance service started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Maintenance service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce performs one maintenance round. GC failures are logged, not
// returned, so a transient storage error does not restart the service.
func (s *MaintenanceService) runOnce() {
	start := time.Now()

	evicted := 0
	if s.cache != nil {
		evicted = s.cache.Sweep()
	}

	if s.store != nil {
		if err := s.store.RunGC(s.discardRatio); err != nil {
			s.logger.Warn().Err(err).Msg("Storage GC failed")
		}
	}

	s.logger.Debug().
		Int("cache_evicted", evicted).
		Dur("elapsed", time.Since(start)).
		Msg("Maintenance round complete")
}

// String implements suture.Service naming for supervisor logs.
func (s *MaintenanceService) String() string {
	return "maintenance-service"
}
