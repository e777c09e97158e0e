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

// ShortestPath finds a BFS shortest path from src to dst, used to explain
// why a test was selected (spec.md §4.4 operation 3). Ties between
// equal-length paths are broken by edge insertion order, grounded on the
// teacher's `tool_find_path.go` witness-reconstruction approach.
//
// Outputs:
//
//	path - src, …, dst in order. Nil if dst is not reachable from src.
func (g *Graph) ShortestPath(src, dst symbol.Symbol) []symbol.Symbol {
	if src == dst {
		return []symbol.Symbol{src}
	}

	visited := symbol.NewSet(src)
	parent := make(map[symbol.Symbol]symbol.Symbol)
	queue := []symbol.Symbol{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, s := range g.directSuccessors(cur) {
			if visited.Has(s) {
				continue
			}
			visited.Add(s)
			parent[s] = cur
			if s == dst {
				return reconstructPath(parent, src, dst)
			}
			queue = append(queue, s)
		}
	}
	return nil
}

func reconstructPath(parent map[symbol.Symbol]symbol.Symbol, src, dst symbol.Symbol) []symbol.Symbol {
	path := []symbol.Symbol{dst}
	cur := dst
	for cur != src {
		cur = parent[cur]
		path = append(path, cur)
	}
	// Reverse into src -> ... -> dst order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
