// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates C1-C7 into the handful of operations both
// the CLI (internal/cliapp) and the HTTP surface (internal/api) need:
// analyze, select, mark-verified, clear, and status. Neither front end
// calls internal/hasher or internal/depgraph directly, and they use
// internal/symgraph, internal/selector, and internal/cache only to open an
// Engine and read its results — they call Engine, which is the one place
// those components' call order is encoded.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/depgraph"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/hasher"
	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Engine bundles the cache handle and builder configuration shared by
// every operation.
//
// Thread Safety: see spec.md §5 "Shared resources" — concurrent
// invocations against the same ProjectRoot are not supported; internal/api
// is the one caller that serializes its own requests to honor this.
type Engine struct {
	ProjectRoot string
	Cache       *cache.Cache
	Builder     *symgraph.Builder
	WorkerCount int
	Logger      *slog.Logger
}

// New constructs an Engine. cache and builder must be non-nil.
func New(projectRoot string, c *cache.Cache, builder *symgraph.Builder, workerCount int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ProjectRoot: projectRoot, Cache: c, Builder: builder, WorkerCount: workerCount, Logger: logger}
}

// AnalyzeResult is Analyze's return value.
type AnalyzeResult struct {
	Graph        *symgraph.Graph
	ReverseIndex map[string][]string
}

// Analyze runs the full C1→C2→C3→C4 pipeline over f (already produced by
// the external analyzer) and persists the resulting snapshot.
func (e *Engine) Analyze(ctx context.Context, f *facts.Facts, cfg facts.AnalyzerConfig, paths []string) (*AnalyzeResult, error) {
	filtered := facts.Filter(f, cfg)

	g, err := e.Builder.Build(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("building symbol graph: %w", err)
	}

	g.ContentHashes = hasher.HashGraph(ctx, g, e.WorkerCount)

	dg := depgraph.FromSymbolGraph(g)
	reverseIdx := dg.ReverseIndex()

	if e.Cache != nil {
		if err := e.Cache.SaveAnalysis(g, paths, reverseIdx); err != nil {
			return nil, fmt.Errorf("saving analysis snapshot: %w", err)
		}
	}

	snapReverse := make(map[string][]string, len(reverseIdx))
	for sym, set := range reverseIdx {
		for _, s := range set.Slice() {
			snapReverse[sym.String()] = append(snapReverse[sym.String()], s.String())
		}
	}

	e.Logger.Info("analyze complete", "symbols", len(g.Nodes), "edges", len(g.Edges))
	return &AnalyzeResult{Graph: g, ReverseIndex: snapReverse}, nil
}

// LoadGraph reconstructs the last saved analysis snapshot's graph and
// reverse index. Returns an error if no snapshot exists.
func (e *Engine) LoadGraph() (*symgraph.Graph, map[symbol.Symbol]symbol.Set, error) {
	snap, ok := e.Cache.LoadAnalysis()
	if !ok {
		return nil, nil, fmt.Errorf("no analysis snapshot found; run analyze first")
	}
	return snap.ToGraph()
}

// Select loads the last snapshot and the verified baseline, then computes
// a Selection. Returns an error if no snapshot exists — callers should run
// Analyze first.
func (e *Engine) Select(ctx context.Context, allTests bool) (*selector.Selection, *symgraph.Graph, error) {
	g, reverseIdx, err := e.LoadGraph()
	if err != nil {
		return nil, nil, err
	}

	baseline := e.Cache.LoadBaseline()

	sel := selector.Select(g, baseline, selector.Options{
		AllTests:     allTests,
		ReverseIndex: reverseIdx,
	})
	return sel, g, nil
}

// MarkVerified updates the baseline from sel per run, and persists it.
func (e *Engine) MarkVerified(sel *selector.Selection, run selector.TestsRun) (*selector.VerifyResult, error) {
	result, err := selector.MarkVerified(sel, run)
	if err != nil {
		return nil, err
	}
	if err := e.Cache.UpdateBaseline(result.Merged); err != nil {
		return nil, fmt.Errorf("persisting updated baseline: %w", err)
	}
	return result, nil
}

// MarkAllVerified overwrites the baseline wholesale with g's current
// content hashes — used to adopt the engine on a project with no prior
// baseline.
func (e *Engine) MarkAllVerified(g *symgraph.Graph) error {
	overwritten := selector.MarkAllVerified(g.ContentHashes)
	return e.Cache.SaveBaseline(overwritten)
}

// Clear removes the analysis snapshot, and the baseline too when all is
// true.
func (e *Engine) Clear(all bool) error {
	if all {
		return e.Cache.ClearAll()
	}
	return e.Cache.ClearAnalysis()
}

// Status reports both stores' on-disk state.
func (e *Engine) Status() cache.Status {
	return e.Cache.Status()
}
