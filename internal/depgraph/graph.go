// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph is the directed graph over fully-qualified symbols that
// the selector queries: transitive successors, a precomputed reverse-
// dependency index, and shortest-path witnesses (spec.md §4.4, component
// C4).
package depgraph

import (
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Graph is a directed graph over FQS keys; edge A -> B denotes "A uses B".
//
// Description:
//
//	adjacency preserves edge insertion order per source vertex (not sorted),
//	since the shortest-path witness's tie-break rule (spec.md §4.4
//	operation 3) depends on the order edges were inserted.
type Graph struct {
	vertices  symbol.Set
	adjacency map[symbol.Symbol][]symbol.Symbol

	// index gives O(1) vertex lookup, grounded in the teacher's
	// byID/byName indexing style (services/trace/index/symbol_index.go).
	index map[symbol.Symbol]struct{}
}

// New builds an empty Graph: no vertices, no edges.
func New() *Graph {
	return &Graph{
		vertices:  symbol.NewSet(),
		adjacency: make(map[symbol.Symbol][]symbol.Symbol),
		index:     make(map[symbol.Symbol]struct{}),
	}
}

// FromSymbolGraph builds a Graph from a symgraph.Graph: every node
// (variable, namespace, and test alike) becomes a vertex, and every §4.2
// edge becomes a directed edge (spec.md §4.4 "Representation").
func FromSymbolGraph(g *symgraph.Graph) *Graph {
	dg := New()
	for sym := range g.Nodes {
		dg.AddVertex(sym)
	}
	for _, e := range g.Edges {
		dg.AddEdge(e.From, e.To)
	}
	return dg
}

// AddVertex registers sym as a vertex, a no-op if already present.
func (g *Graph) AddVertex(sym symbol.Symbol) {
	if _, ok := g.index[sym]; ok {
		return
	}
	g.index[sym] = struct{}{}
	g.vertices.Add(sym)
}

// AddEdge adds a directed edge from -> to, implicitly registering both
// endpoints as vertices. Duplicate edges are preserved (this is an
// adjacency list, not a set) since duplicates don't affect reachability
// and preserving them keeps insertion order stable for the witness
// tie-break rule.
func (g *Graph) AddEdge(from, to symbol.Symbol) {
	g.AddVertex(from)
	g.AddVertex(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Vertices returns every vertex in deterministic order.
func (g *Graph) Vertices() []symbol.Symbol {
	return g.vertices.Slice()
}

// HasVertex reports whether sym is a vertex of g.
func (g *Graph) HasVertex(sym symbol.Symbol) bool {
	_, ok := g.index[sym]
	return ok
}

// directSuccessors returns v's direct out-neighbors, deduplicated but
// order-preserving by first occurrence (used by Reachable's BFS frontier
// and the DP phase of ReverseIndex).
func (g *Graph) directSuccessors(v symbol.Symbol) []symbol.Symbol {
	raw := g.adjacency[v]
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[symbol.Symbol]struct{}, len(raw))
	out := make([]symbol.Symbol, 0, len(raw))
	for _, s := range raw {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
