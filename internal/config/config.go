// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package config loads application configuration for the clipfeed daemon.
//
// Configuration is layered: struct defaults first, then an optional YAML
// file, then CLIPFEED_-prefixed environment variables. Nesting uses a
// double underscore, e.g. CLIPFEED_LOGGING__LEVEL=debug or
// CLIPFEED_ENGINE__MATCH_THRESHOLD=0.6.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/clipfeed/clipfeed/internal/feed"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/clipfeed/config.yaml",
	"/etc/clipfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CLIPFEED_CONFIG"

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "CLIPFEED_"

// Config is the top-level application configuration.
type Config struct {
	// Logging configures the global logger.
	Logging LoggingConfig `json:"logging"`

	// Storage configures the embedded database.
	Storage StorageConfig `json:"storage"`

	// Catalog configures the category catalog.
	Catalog CatalogConfig `json:"catalog"`

	// Maintenance configures the background maintenance service.
	Maintenance MaintenanceConfig `json:"maintenance"`

	// Engine holds the interest engine tunables.
	Engine feed.Config `json:"engine"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `json:"level" validate:"oneof=trace debug info warn error disabled"`

	// Format is json or console.
	Format string `json:"format" validate:"oneof=json console"`
}

// StorageConfig configures the embedded database.
type StorageConfig struct {
	// Dir is the badger data directory. Empty runs in-memory.
	Dir string `json:"dir"`

	// GCDiscardRatio is the badger value-log GC discard ratio.
	GCDiscardRatio float64 `json:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// CatalogConfig configures the category catalog.
type CatalogConfig struct {
	// Path is the catalog JSON file. Empty disables preference reporting.
	Path string `json:"path"`
}

// MaintenanceConfig configures the background maintenance service.
type MaintenanceConfig struct {
	// Interval is how often the cache sweep and storage GC run.
	Interval time.Duration `json:"interval" validate:"gt=0"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Dir:            "data",
			GCDiscardRatio: 0.5,
		},
		Maintenance: MaintenanceConfig{
			Interval: 5 * time.Minute,
		},
		Engine: *feed.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional config file,
// and environment overrides, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "json"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints and the engine tunables.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}

// findConfigFile returns the first config file that exists, honoring the
// env override. Returns empty if none is found (defaults + env only).
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
