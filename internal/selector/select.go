// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package selector

import (
	"github.com/aleutianlabs/testscope/internal/depgraph"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Options configures a Select call.
type Options struct {
	// AllTests forces the all-tests path (spec.md §4.5 algorithm step 2).
	AllTests bool

	// ReverseIndex is an optional precomputed depgraph.Graph.ReverseIndex()
	// result. When nil, Select computes per-test reachability directly
	// (spec.md §4.5 algorithm step 5, Regular rule's fallback).
	ReverseIndex map[symbol.Symbol]symbol.Set
}

// Select computes a Selection from the current graph and verified
// baseline, implementing spec.md §4.5's seven-step algorithm in order.
func Select(g *symgraph.Graph, baseline map[symbol.Symbol]string, opts Options) *Selection {
	dg := depgraph.FromSymbolGraph(g)
	testNodes := g.TestNodes()

	sel := &Selection{
		graph:      g,
		dg:         dg,
		reverseIdx: opts.ReverseIndex,
	}

	// Step 1: empty-baseline fast path.
	if len(baseline) == 0 && !opts.AllTests {
		sel.Tests = selectAll(testNodes, ReasonNoBaseline)
		sel.finalize(g, baseline)
		return sel
	}

	// Step 2: all-tests path.
	if opts.AllTests {
		sel.Tests = selectAll(testNodes, ReasonAllTestsRequested)
		sel.finalize(g, baseline)
		return sel
	}

	// Step 3: change detection.
	changed := detectChanged(g.ContentHashes, baseline)
	sel.ChangedSymbols = changed
	sel.ChangedHashes = make(map[symbol.Symbol]string, len(changed))
	for c := range changed {
		if h, ok := g.ContentHashes[c]; ok {
			sel.ChangedHashes[c] = h
		}
	}

	// Step 4: test classification.
	targeted, integration, regular := classifyTests(testNodes)

	// Step 5: selection rules.
	sel.Tests = append(sel.Tests, selectTargeted(targeted, changed)...)
	sel.Tests = append(sel.Tests, selectIntegration(integration)...)
	sel.Tests = append(sel.Tests, selectRegular(regular, changed, dg, opts.ReverseIndex)...)

	// Step 6: untested-usages report.
	sel.UntestedUsages = untestedUsages(g, dg, changed)

	sel.finalize(g, baseline)
	return sel
}

func selectAll(testNodes []*symgraph.Node, reason Reason) []TestSelection {
	out := make([]TestSelection, len(testNodes))
	for i, n := range testNodes {
		out[i] = TestSelection{Symbol: n.Symbol, Reason: reason}
	}
	return out
}

// detectChanged implements spec.md §4.5 algorithm step 3: a symbol is
// changed iff it is absent from the baseline or its baseline hash differs
// from the current one. Deletions (present in baseline, absent from
// current) are never selected as changed.
func detectChanged(current map[symbol.Symbol]string, baseline map[symbol.Symbol]string) symbol.Set {
	changed := symbol.NewSet()
	for sym, h := range current {
		if baselineHash, ok := baseline[sym]; !ok || baselineHash != h {
			changed.Add(sym)
		}
	}
	return changed
}

// classifyTests partitions test nodes per spec.md §4.5 algorithm step 4.
func classifyTests(testNodes []*symgraph.Node) (targeted, integration, regular []*symgraph.Node) {
	for _, n := range testNodes {
		switch {
		case n.Metadata.TestTargets != nil:
			targeted = append(targeted, n)
		case n.Metadata.IsIntegration:
			integration = append(integration, n)
		default:
			regular = append(regular, n)
		}
	}
	return targeted, integration, regular
}

// selectTargeted implements the Targeted selection rule: select iff
// test_targets ∩ changed ≠ ∅.
func selectTargeted(targeted []*symgraph.Node, changed symbol.Set) []TestSelection {
	var out []TestSelection
	for _, n := range targeted {
		if n.Metadata.TestTargets.Intersects(changed) {
			out = append(out, TestSelection{Symbol: n.Symbol, Reason: ReasonTargetedChanged})
		}
	}
	return out
}

// selectIntegration implements the Integration (unselective) rule: always
// selected, conservatively.
func selectIntegration(integration []*symgraph.Node) []TestSelection {
	out := make([]TestSelection, len(integration))
	for i, n := range integration {
		out[i] = TestSelection{Symbol: n.Symbol, Reason: ReasonIntegration}
	}
	return out
}

// selectRegular implements the Regular rule: select iff some changed
// symbol is reachable from this test. Uses the precomputed reverse index
// when available; otherwise falls back to per-test reachability.
func selectRegular(regular []*symgraph.Node, changed symbol.Set, dg *depgraph.Graph, reverseIdx map[symbol.Symbol]symbol.Set) []TestSelection {
	var out []TestSelection

	if reverseIdx != nil {
		// {t : t ∈ rev[c] ∪ {c} for c ∈ changed} ∩ regular_tests. reverseIdx
		// excludes c from rev[c] by construction (depgraph.ReverseIndex), so
		// changed must be unioned in explicitly — a test is always reachable
		// from itself, and a regular test whose own definition changed must
		// still be selected (spec.md §9 "MUST include the test in its own
		// reachable set").
		reachingTests := symbol.NewSet()
		for c := range changed {
			reachingTests.Add(c)
			for t := range reverseIdx[c] {
				reachingTests.Add(t)
			}
		}
		for _, n := range regular {
			if reachingTests.Has(n.Symbol) {
				out = append(out, TestSelection{Symbol: n.Symbol, Reason: ReasonReachableChange})
			}
		}
		return out
	}

	for _, n := range regular {
		if dg.Reachable(n.Symbol).Intersects(changed) {
			out = append(out, TestSelection{Symbol: n.Symbol, Reason: ReasonReachableChange})
		}
	}
	return out
}

// untestedUsages implements spec.md §4.5 algorithm step 6: for each
// changed symbol, its direct predecessors that are not tests, not
// namespace nodes, and have no test reachable backward to them.
func untestedUsages(g *symgraph.Graph, dg *depgraph.Graph, changed symbol.Set) map[symbol.Symbol]symbol.Set {
	allTests := symbol.NewSet()
	for _, n := range g.TestNodes() {
		allTests.Add(n.Symbol)
	}

	rev := dg.ReverseIndex()

	out := make(map[symbol.Symbol]symbol.Set)
	for c := range changed {
		preds := directPredecessors(g, c)
		var untested symbol.Set
		for _, pred := range preds {
			node, ok := g.Nodes[pred]
			if !ok || node.Kind == symgraph.KindTest || node.Kind == symgraph.KindNamespace {
				continue
			}
			if rev[pred].Intersects(allTests) {
				continue
			}
			if untested == nil {
				untested = symbol.NewSet()
			}
			untested.Add(pred)
		}
		if len(untested) > 0 {
			out[c] = untested
		}
	}
	return out
}

// directPredecessors scans the symbol graph's edges for nodes with a
// direct edge to target. The symbol graph (not the depgraph) is used here
// because edges are a multiset at that layer; duplicates don't matter for
// membership.
func directPredecessors(g *symgraph.Graph, target symbol.Symbol) []symbol.Symbol {
	seen := symbol.NewSet()
	var out []symbol.Symbol
	for _, e := range g.Edges {
		if e.To != target {
			continue
		}
		if seen.Has(e.From) {
			continue
		}
		seen.Add(e.From)
		out = append(out, e.From)
	}
	return out
}

// finalize fills in stats and sorts Tests into deterministic order.
func (s *Selection) finalize(g *symgraph.Graph, baseline map[symbol.Symbol]string) {
	sortTestSelections(s.Tests)

	untestedTotal := 0
	for _, preds := range s.UntestedUsages {
		untestedTotal += len(preds)
	}

	total := len(g.TestNodes())
	selected := len(s.Tests)
	rate := 0.0
	if total > 0 {
		rate = (float64(selected) / float64(total)) * 100
	}

	s.Stats = Stats{
		TotalTests:       total,
		SelectedTests:    selected,
		ChangedSymbols:   len(s.ChangedSymbols),
		UntestedUsages:   untestedTotal,
		SelectionRatePct: rate,
	}
}

func sortTestSelections(ts []TestSelection) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && symbol.Less(ts[j].Symbol, ts[j-1].Symbol); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}
