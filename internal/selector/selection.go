// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package selector computes which tests to run given a current symbol
// graph and a verified baseline (spec.md §4.5, component C5): the engine's
// central decision, everything upstream exists to feed it.
package selector

import (
	"fmt"

	"github.com/aleutianlabs/testscope/internal/depgraph"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Reason is the selection_reason attached to a selected test.
type Reason string

const (
	ReasonNoBaseline        Reason = "no baseline"
	ReasonAllTestsRequested Reason = "all tests requested"
	ReasonTargetedChanged   Reason = "targeted test target changed"
	ReasonIntegration       Reason = "integration test, always selected"
	ReasonReachableChange   Reason = "reaches a changed symbol"
)

// Stats holds the selection's summary counts (spec.md §4.5 "Statistics").
type Stats struct {
	TotalTests       int
	SelectedTests    int
	ChangedSymbols   int
	UntestedUsages   int
	SelectionRatePct float64
}

// Selection is the selector's output (spec.md §3 "Selection object").
//
// Description:
//
//	Trace is deliberately omitted as a field: it is computed lazily via the
//	Trace method rather than populated eagerly, per spec.md §4.5 operation
//	7 ("Materialized only on demand").
type Selection struct {
	Tests          []TestSelection
	ChangedSymbols symbol.Set
	ChangedHashes  map[symbol.Symbol]string
	UntestedUsages map[symbol.Symbol]symbol.Set
	Stats          Stats

	graph      *symgraph.Graph
	dg         *depgraph.Graph
	reverseIdx map[symbol.Symbol]symbol.Set
}

// TestSelection is one selected test node plus why it was selected.
type TestSelection struct {
	Symbol symbol.Symbol
	Reason Reason
}

// TestSymbols returns just the FQS of every selected test, in the
// selection's ordered-list form (spec.md §3 "Selection object": "tests:
// ordered list of test FQS").
func (s *Selection) TestSymbols() []symbol.Symbol {
	out := make([]symbol.Symbol, len(s.Tests))
	for i, ts := range s.Tests {
		out[i] = ts.Symbol
	}
	return out
}

// Trace lazily computes a BFS witness path from t to every changed symbol
// reachable from it (spec.md §4.5 operation 7).
func (s *Selection) Trace(t symbol.Symbol) map[symbol.Symbol][]symbol.Symbol {
	out := make(map[symbol.Symbol][]symbol.Symbol)
	reached := s.dg.Reachable(t)
	for c := range s.ChangedSymbols {
		if !reached.Has(c) {
			continue
		}
		if path := s.dg.ShortestPath(t, c); path != nil {
			out[c] = path
		}
	}
	return out
}

// InvalidTestsRunError reports a tests_run value that is neither absent,
// "all", nor a list of FQS (spec.md §4.5 "mark_verified Errors").
// MarkVerified itself never returns it, since a TestsRun can only hold
// those forms; the CLI's mark-verified command returns it for a test
// argument that does not parse as a symbol.
type InvalidTestsRunError struct {
	Value any
}

func (e *InvalidTestsRunError) Error() string {
	return fmt.Sprintf("selector: tests_run must be absent, \"all\", or a list of symbols, got %#v", e.Value)
}
