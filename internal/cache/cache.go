// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists the two on-disk stores the engine owns: the
// ephemeral analysis snapshot and the durable verified baseline (spec.md
// §4.6, component C6). Both are backed by an embedded BadgerDB instance
// rooted at a project-local dotfile directory, grounded on the teacher's
// SnapshotManager (services/trace/graph/snapshot.go).
package cache

import (
	"log/slog"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// DefaultDirName is the default project-root dotfile directory housing
// both stores (spec.md §4.6: "Path: process-configurable, defaults to a
// project-root dotfile").
const DefaultDirName = ".testscope"

// BadgerDB key prefixes. Both stores share one DB instance; prefixes keep
// their keyspaces disjoint, mirroring the teacher's "graph:snap:" scheme.
const (
	keyPrefixAnalysis = "analysis:"
	keyAnalysisLatest = "analysis:latest"
	keyPrefixBaseline = "baseline:"
)

// Cache owns both stores' BadgerDB handle.
//
// Thread Safety: safe for concurrent use — BadgerDB serializes its own
// writers, and spec.md §5 "Shared resources" already asks callers not to
// run two engine invocations against the same project directory
// concurrently.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Options configures Open.
type Options struct {
	// Dir is the BadgerDB directory. Defaults to filepath.Join(projectRoot,
	// DefaultDirName).
	Dir string

	Logger *slog.Logger

	// InMemory opens an in-memory Badger instance instead of one rooted at
	// Dir — used by tests.
	InMemory bool
}

// Open opens (creating if absent) the cache directory for projectRoot.
func Open(projectRoot string, opts Options) (*Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.Dir == "" && !opts.InMemory {
		badgerOpts = badger.DefaultOptions(filepath.Join(projectRoot, DefaultDirName))
	}
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, logger: logger}, nil
}

// Close releases the underlying BadgerDB handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
