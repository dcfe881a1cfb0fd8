// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package catalog loads the fixed category catalog used by preference
// reporting: a versioned JSON file of category labels and their
// embeddings, produced offline alongside the embedding model.
package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/clipfeed/clipfeed/internal/feed"
)

// Catalog is an immutable, versioned list of categories.
type Catalog struct {
	version    string
	categories []feed.Category
}

// catalogFile is the on-disk JSON shape.
type catalogFile struct {
	Version    string          `json:"version"`
	Categories []feed.Category `json:"categories"`
}

// Load reads a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog from JSON bytes.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}

	for i, cat := range f.Categories {
		if cat.Label == "" {
			return nil, fmt.Errorf("category %d has no label", i)
		}
		if len(cat.Embedding) == 0 {
			return nil, fmt.Errorf("category %q has no embedding", cat.Label)
		}
	}

	return &Catalog{
		version:    f.Version,
		categories: f.Categories,
	}, nil
}

// New builds a catalog directly from categories, used by tests.
func New(version string, categories []feed.Category) *Catalog {
	return &Catalog{version: version, categories: categories}
}

// Version returns the catalog version string.
func (c *Catalog) Version() string {
	return c.version
}

// Categories returns the category list. Callers must not mutate it.
func (c *Catalog) Categories() []feed.Category {
	return c.categories
}
