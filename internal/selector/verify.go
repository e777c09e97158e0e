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

import "github.com/aleutianlabs/testscope/internal/symbol"

// TestsRun is the argument to MarkVerified: either every test that was
// selected ran (All), or an explicit subset did.
type TestsRun struct {
	All   bool
	Tests []symbol.Symbol
}

// AllTestsRun is the :all / absent form of tests_run.
func AllTestsRun() TestsRun { return TestsRun{All: true} }

// ExplicitTestsRun is the explicit-list form of tests_run.
func ExplicitTestsRun(tests []symbol.Symbol) TestsRun { return TestsRun{Tests: tests} }

// VerifyResult reports what MarkVerified actually merged into the
// baseline, plus anything it could not cover.
type VerifyResult struct {
	Merged  map[symbol.Symbol]string
	Skipped symbol.Set
}

// MarkVerified computes the baseline update for a successful test run
// (spec.md §4.5 "mark_verified").
//
// Description:
//
//	Does not write to any store itself — internal/cache owns persistence.
//	This function is pure: selection in, merged delta out, so the caller
//	decides when and how to persist it (write-then-rename, per spec.md §5
//	"Cancellation").
func MarkVerified(sel *Selection, run TestsRun) (*VerifyResult, error) {
	if run.All {
		return &VerifyResult{Merged: cloneHashes(sel.ChangedHashes)}, nil
	}

	covered := symbol.NewSet()
	for _, t := range run.Tests {
		for s := range sel.dg.Reachable(t) {
			covered.Add(s)
		}
	}

	verified := symbol.NewSet()
	merged := make(map[symbol.Symbol]string)
	for c := range sel.ChangedSymbols {
		if covered.Has(c) {
			verified.Add(c)
			if h, ok := sel.ChangedHashes[c]; ok {
				merged[c] = h
			}
		}
	}

	skipped := symbol.NewSet()
	for c := range sel.ChangedSymbols {
		if !verified.Has(c) {
			skipped.Add(c)
		}
	}

	return &VerifyResult{Merged: merged, Skipped: skipped}, nil
}

// MarkAllVerified overwrites the baseline wholesale with the graph's
// current content hashes (spec.md §4.5 "mark_all_verified") — used to
// adopt the engine on a legacy codebase with no prior baseline.
func MarkAllVerified(currentHashes map[symbol.Symbol]string) map[symbol.Symbol]string {
	return cloneHashes(currentHashes)
}

func cloneHashes(m map[symbol.Symbol]string) map[symbol.Symbol]string {
	out := make(map[symbol.Symbol]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
