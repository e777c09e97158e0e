// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hasher

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aleutianlabs/testscope/internal/symgraph"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// Target is a single (symbol, location) pair to hash.
type Target struct {
	Symbol    symbol.Symbol
	File      string
	StartLine int
	EndLine   int
}

// BulkHash hashes every target, reading each distinct file exactly once and
// reusing its lines vector across every target defined in it (spec.md §4.3
// "Bulk interface"). Files unreadable during bulk hashing yield an empty
// contribution for their targets rather than failing the whole call.
//
// Description:
//
//	Files are processed concurrently, at most workerCount at a time; a
//	workerCount of 0 or less sets no limit. Targets are
//	grouped by file first so concurrency is over files, not individual
//	symbols, matching the "read once per file" contract.
func BulkHash(ctx context.Context, targets []Target, workerCount int) map[symbol.Symbol]string {
	byFile := make(map[string][]Target)
	for _, t := range targets {
		byFile[t.File] = append(byFile[t.File], t)
	}

	results := make(map[symbol.Symbol]string, len(targets))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	if workerCount > 0 {
		g.SetLimit(workerCount)
	}

	for file, fileTargets := range byFile {
		file, fileTargets := file, fileTargets
		g.Go(func() error {
			lines, err := readLines(file)
			if err != nil {
				// Unreadable file: every target in it yields an empty
				// contribution (spec.md §4.3 "Bulk interface"), never an
				// error — mirrors Hash's own never-errors contract.
				return nil
			}
			local := make(map[symbol.Symbol]string, len(fileTargets))
			for _, t := range fileTargets {
				if h, ok := HashLines(lines, t.StartLine, t.EndLine); ok {
					local[t.Symbol] = h
				}
			}
			mu.Lock()
			for sym, h := range local {
				results[sym] = h
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // BulkHash never fails; per-file errors are already absorbed above.

	return results
}

// HashGraph hashes every node in g that carries a concrete source location,
// grouping by file per the bulk interface (spec.md §4.3 "Bulk interface":
// "Hashing all symbols in a graph groups node nodes by file, then applies
// the bulk interface per file").
func HashGraph(ctx context.Context, g *symgraph.Graph, workerCount int) map[symbol.Symbol]string {
	targets := make([]Target, 0, len(g.Nodes))
	for sym, node := range g.Nodes {
		if node.Line == 0 || node.EndLine == 0 {
			continue
		}
		targets = append(targets, Target{
			Symbol:    sym,
			File:      node.File,
			StartLine: node.Line,
			EndLine:   node.EndLine,
		})
	}
	return BulkHash(ctx, targets, workerCount)
}
