// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package main is the entry point for the clipfeed daemon.
//
// Clipfeed models per-user interest profiles from engagement signals and
// serves personalized, weighted-sampled video feed batches. The daemon
// wires the interest engine to its BadgerDB repositories, the in-memory
// ranking cache, and the category catalog, then runs background
// maintenance under a supervision tree.
//
// # Startup Order
//
//  1. Configuration: defaults, optional YAML file, CLIPFEED_ env overrides
//  2. Logging: global zerolog from the logging config
//  3. Storage: BadgerDB at storage.dir (in-memory when unset)
//  4. Catalog: category catalog JSON, when configured
//  5. Engine: interest engine over storage, cache, and catalog
//  6. Supervisor: maintenance service under the suture tree
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the supervision tree
// stops its services, then storage is closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipfeed/clipfeed/internal/catalog"
	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/feed"
	"github.com/clipfeed/clipfeed/internal/feed/feedcache"
	"github.com/clipfeed/clipfeed/internal/logging"
	"github.com/clipfeed/clipfeed/internal/storage"
	"github.com/clipfeed/clipfeed/internal/supervisor"
	"github.com/clipfeed/clipfeed/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("storage_dir", cfg.Storage.Dir).
		Str("catalog_path", cfg.Catalog.Path).
		Msg("Starting clipfeed")

	var store *storage.Store
	if cfg.Storage.Dir == "" {
		store, err = storage.OpenInMemory(logging.Logger())
	} else {
		store, err = storage.Open(cfg.Storage.Dir, logging.Logger())
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	cache := feedcache.New()

	deps := feed.Deps{
		Profiles:   store,
		Candidates: store,
		Cache:      cache,
	}

	// The catalog is optional: without one, preference reporting is
	// disabled but feeds still work.
	if cfg.Catalog.Path != "" {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to load category catalog")
		}
		deps.Catalog = cat
		logging.Info().
			Str("version", cat.Version()).
			Int("categories", len(cat.Categories())).
			Msg("Category catalog loaded")
	}

	engine, err := feed.NewEngine(&cfg.Engine, deps, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create feed engine")
	}
	logging.Info().
		Float64("match_threshold", engine.Config().MatchThreshold).
		Int("default_batch_size", engine.Config().DefaultBatchSize).
		Msg("Feed engine ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddEngineService(services.NewMaintenanceService(
		cache, store, cfg.Maintenance.Interval, cfg.Storage.GCDiscardRatio, logging.Logger()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Clipfeed stopped")
}
