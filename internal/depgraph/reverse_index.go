// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import "github.com/aleutianlabs/testscope/internal/symbol"

// ReverseIndex computes rev[x] = the set of vertices from which x is
// reachable, excluding x itself (spec.md §4.4 operation 2), in one pass:
//
//  1. order vertices in reverse topological order (sinks first). If the
//     graph has cycles, the vertices involved have no well-defined
//     topological position; they are appended last in a stable fallback
//     order and handled by the fixpoint relaxation below.
//  2. Phase 1 (DP): for each vertex v in that order, T[v] = direct
//     successors of v, unioned with T[s] for every direct successor s
//     whose T[s] is already known. Processing sinks first guarantees every
//     successor's T[s] is already computed for an acyclic graph, so this
//     phase is a single pass over V+E. If cycles are present, a bounded
//     number of extra relaxation passes over just the cyclic vertices
//     brings T to its fixpoint — still never recomputing an acyclic
//     vertex's successor set once it is known.
//  3. Phase 2: invert T into rev.
//
// Complexity: O(V+E) to build the transitive map is not possible in
// general (the map itself can be O(V·E)); this implementation is O(V·E)
// in the worst case, as permitted by spec.md §4.4 "Complexity", but each
// vertex's successor set is computed once in the acyclic case.
func (g *Graph) ReverseIndex() map[symbol.Symbol]symbol.Set {
	order, cyclic := g.reverseTopologicalOrder()

	t := make(map[symbol.Symbol]symbol.Set, len(order))
	for _, v := range order {
		t[v] = computeT(g, v, t)
	}

	if len(cyclic) > 0 {
		relaxCycles(g, cyclic, t)
	}

	rev := make(map[symbol.Symbol]symbol.Set, len(order))
	for _, v := range g.Vertices() {
		rev[v] = symbol.NewSet()
	}
	for v, successors := range t {
		for d := range successors {
			if d == v {
				continue
			}
			rev[d].Add(v)
		}
	}
	return rev
}

// computeT computes T[v] = direct_successors(v) ∪ ⋃ T[s] for every direct
// successor s already present in t.
func computeT(g *Graph, v symbol.Symbol, t map[symbol.Symbol]symbol.Set) symbol.Set {
	out := symbol.NewSet()
	for _, s := range g.directSuccessors(v) {
		out.Add(s)
		if ts, ok := t[s]; ok {
			for d := range ts {
				out.Add(d)
			}
		}
	}
	return out
}

// relaxCycles brings T to a fixpoint over the vertices involved in a
// cycle, for which the single reverse-topological pass cannot guarantee
// every successor was already computed. Bounded to len(cyclic) passes,
// which suffices for a fixpoint over any cycle structure since each pass
// propagates reachability at least one hop further.
func relaxCycles(g *Graph, cyclic []symbol.Symbol, t map[symbol.Symbol]symbol.Set) {
	for range cyclic {
		changed := false
		for _, v := range cyclic {
			next := computeT(g, v, t)
			prev := t[v]
			if prev == nil || len(next) != len(prev) {
				t[v] = next
				changed = true
				continue
			}
			for d := range next {
				if !prev.Has(d) {
					t[v] = next
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}

// reverseTopologicalOrder computes a reverse topological ordering via
// Kahn's algorithm on the transposed notion of in-degree (here, a
// vertex's "in-degree" for this purpose counts its own out-edges, since we
// want sinks — zero out-edges — first). Vertices left over once no more
// zero-out-degree vertex remains are part of a cycle; they are returned
// separately in deterministic (symbol.Less) order.
func (g *Graph) reverseTopologicalOrder() (order []symbol.Symbol, cyclic []symbol.Symbol) {
	outDegree := make(map[symbol.Symbol]int, len(g.vertices))
	for _, v := range g.Vertices() {
		outDegree[v] = len(g.directSuccessors(v))
	}

	// predecessors[s] = vertices with a direct edge to s; used to decrement
	// outDegree of a predecessor once all of *its* successors have been
	// emitted is not what we need here — instead, emitting v when
	// outDegree[v] reaches 0 requires decrementing v's own out-degree as
	// its successors are emitted, which needs the reverse adjacency.
	predecessors := make(map[symbol.Symbol][]symbol.Symbol)
	for _, v := range g.Vertices() {
		for _, s := range g.directSuccessors(v) {
			predecessors[s] = append(predecessors[s], v)
		}
	}

	var queue []symbol.Symbol
	for _, v := range g.Vertices() {
		if outDegree[v] == 0 {
			queue = append(queue, v)
		}
	}
	sortFrontier(queue)

	visited := symbol.NewSet()
	for len(queue) > 0 {
		sortFrontier(queue)
		v := queue[0]
		queue = queue[1:]
		if visited.Has(v) {
			continue
		}
		visited.Add(v)
		order = append(order, v)

		for _, pred := range predecessors[v] {
			outDegree[pred]--
			if outDegree[pred] == 0 {
				queue = append(queue, pred)
			}
		}
	}

	for _, v := range g.Vertices() {
		if !visited.Has(v) {
			cyclic = append(cyclic, v)
		}
	}
	return order, cyclic
}
