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

	"github.com/aleutianlabs/testscope/internal/symgraph"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// RehashSubset produces {FQS → hex64} for exactly the symbols defined in
// changedFiles, recomputed from current on-disk content (spec.md §4.3
// "Rehash subset"). This is the hook internal/patch uses to avoid
// rehashing an entire graph after a handful of files change.
func RehashSubset(ctx context.Context, g *symgraph.Graph, changedFiles []string, workerCount int) map[symbol.Symbol]string {
	changed := make(map[string]struct{}, len(changedFiles))
	for _, f := range changedFiles {
		changed[f] = struct{}{}
	}

	var targets []Target
	for _, file := range changedFiles {
		rec, ok := g.Files[file]
		if !ok {
			continue
		}
		for _, sym := range rec.Symbols {
			node, ok := g.Nodes[sym]
			if !ok || node.Line == 0 || node.EndLine == 0 {
				continue
			}
			targets = append(targets, Target{
				Symbol:    sym,
				File:      node.File,
				StartLine: node.Line,
				EndLine:   node.EndLine,
			})
		}
	}
	return BulkHash(ctx, targets, workerCount)
}
