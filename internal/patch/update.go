// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patch

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Request describes one incremental update (spec.md §4.7 "analysis-
// snapshot-based incremental update driven by external 'changed files'
// input").
type Request struct {
	// Changed lists files that still exist on disk but whose content may
	// have changed. They are re-analyzed and merged into the surviving
	// graph.
	Changed []string

	// Deleted lists files that no longer exist on disk. Every symbol they
	// defined is evicted, along with edges that reference it.
	Deleted []string

	// ChangedFacts holds the re-analyzed facts for exactly the files in
	// Changed (already filtered to the project's dialect, as C1 requires).
	// The caller is responsible for invoking the configured Analyzer over
	// Changed and routing its output through facts.Filter before calling
	// Update.
	ChangedFacts *facts.Facts
}

// Update applies an incremental structural update to g in place of a full
// reanalyze (spec.md §4.7, paragraphs 3-6):
//
//  1. Remove from nodes/edges/files every symbol defined in a Deleted file.
//  2. Remove those files' entries from the files map.
//  3. Re-analyze (already done by the caller into req.ChangedFacts) and
//     merge the resulting graph for req.Changed into the surviving
//     structure.
//  4. Drop stale edges whose endpoints were removed.
//
// The returned Graph is a new value; g is left untouched (spec.md §5: "The
// graph and selection objects are owned by one consumer at a time and are
// immutable after construction").
func Update(ctx context.Context, g *symgraph.Graph, req Request, builder *symgraph.Builder, opts ...Option) (*symgraph.Graph, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := startSpan(ctx, o.Tracer, "patch.Update")
	defer span.End()

	out := cloneGraph(g)

	deleted := make(map[string]bool, len(req.Deleted))
	for _, f := range req.Deleted {
		deleted[f] = true
	}
	changed := make(map[string]bool, len(req.Changed))
	for _, f := range req.Changed {
		changed[f] = true
	}

	removed := removeFiles(out, deleted)
	removed += removeFiles(out, changed) // surviving content is re-merged below

	if req.ChangedFacts != nil && builder != nil {
		patchGraph, err := builder.Build(ctx, req.ChangedFacts)
		if err != nil {
			return nil, err
		}
		mergeGraph(out, patchGraph)
	}

	dropped := dropStaleEdges(out)

	span.SetAttributes(
		attribute.Int("patch.symbols_removed", removed),
		attribute.Int("patch.stale_edges_dropped", dropped),
	)
	o.Logger.Debug("incremental update complete",
		"deleted_files", len(req.Deleted),
		"changed_files", len(req.Changed),
		"symbols_removed", removed,
		"stale_edges_dropped", dropped,
	)

	return out, nil
}

// cloneGraph makes a structural copy of g so Update never mutates its
// input, mirroring the immutability contract documented on symgraph.Graph.
func cloneGraph(g *symgraph.Graph) *symgraph.Graph {
	out := symgraph.NewGraph()
	for sym, n := range g.Nodes {
		nodeCopy := *n
		out.Nodes[sym] = &nodeCopy
	}
	out.Edges = append(out.Edges, g.Edges...)
	for file, rec := range g.Files {
		out.Files[file] = &symgraph.FileRecord{Symbols: append([]symbol.Symbol(nil), rec.Symbols...)}
	}
	for sym, h := range g.ContentHashes {
		out.ContentHashes[sym] = h
	}
	return out
}

// removeFiles evicts every symbol defined in a file named by files from
// g's nodes and files map, returning the count of symbols removed (spec.md
// §4.7: "Remove from nodes/edges/files every symbol defined in a file that
// no longer exists on disk" / "Remove those files' entries from the files
// map").
func removeFiles(g *symgraph.Graph, files map[string]bool) int {
	removed := 0
	for file := range files {
		rec, ok := g.Files[file]
		if !ok {
			continue
		}
		for _, sym := range rec.Symbols {
			if _, exists := g.Nodes[sym]; exists {
				delete(g.Nodes, sym)
				delete(g.ContentHashes, sym)
				removed++
			}
		}
		delete(g.Files, file)
	}
	return removed
}

// mergeGraph merges patch's nodes/edges/files into out, overwriting any
// node the patch redefines (re-analysis of a changed file always
// supersedes stale content for that file's symbols).
func mergeGraph(out, patch *symgraph.Graph) {
	for sym, n := range patch.Nodes {
		out.Nodes[sym] = n
	}
	out.Edges = append(out.Edges, patch.Edges...)
	for file, rec := range patch.Files {
		out.Files[file] = rec
	}
	for sym, h := range patch.ContentHashes {
		out.ContentHashes[sym] = h
	}
}

// dropStaleEdges removes edges whose From or To no longer names a node in
// g, and reports how many were dropped (spec.md §4.7: "Drop stale edges
// whose endpoints were removed").
func dropStaleEdges(g *symgraph.Graph) int {
	kept := g.Edges[:0:0]
	dropped := 0
	for _, e := range g.Edges {
		_, fromOK := g.Nodes[e.From]
		_, toOK := g.Nodes[e.To]
		if !fromOK || !toOK {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	g.Edges = kept
	return dropped
}
