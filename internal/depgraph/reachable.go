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

// Reachable returns the set of nodes reachable from v, including v itself
// (spec.md §4.4 operation 1), via breadth-first traversal with a sorted
// frontier so the visiting order — and therefore the result for any caller
// that cares about BFS order rather than just set membership — is
// deterministic.
//
// Complexity: O(V+E) (spec.md §4.4 "Complexity").
func (g *Graph) Reachable(v symbol.Symbol) symbol.Set {
	visited := symbol.NewSet(v)
	frontier := []symbol.Symbol{v}

	for len(frontier) > 0 {
		var next []symbol.Symbol
		sortFrontier(frontier)
		for _, cur := range frontier {
			for _, s := range g.directSuccessors(cur) {
				if !visited.Has(s) {
					visited.Add(s)
					next = append(next, s)
				}
			}
		}
		frontier = next
	}
	return visited
}

func sortFrontier(syms []symbol.Symbol) {
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && symbol.Less(syms[j], syms[j-1]); j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
}
