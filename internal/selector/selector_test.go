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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/depgraph"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

func sym(s string) symbol.Symbol { return symbol.MustParse(s) }

// buildGraph constructs a small fixture: app.core/handler is used by
// app.core-test/test-handler (a regular test reaching it transitively via
// app.core/helper), plus a targeted test and an integration test.
func buildGraph() *symgraph.Graph {
	g := symgraph.NewGraph()

	addVar := func(s symbol.Symbol, file string) {
		g.Nodes[s] = &symgraph.Node{Symbol: s, Kind: symgraph.KindVar, File: file, Line: 1, EndLine: 2}
	}
	addVar(sym("app.core/handler"), "app/core.clj")
	addVar(sym("app.core/helper"), "app/core.clj")
	addVar(sym("app.util/unrelated"), "app/util.clj")

	g.Nodes[sym("app.core-test/regular")] = &symgraph.Node{
		Symbol: sym("app.core-test/regular"), Kind: symgraph.KindTest,
		File: "app/core_test.clj", Line: 1, EndLine: 3,
		Metadata: symgraph.Metadata{IsTest: true},
	}
	g.Nodes[sym("app.core-test/targeted")] = &symgraph.Node{
		Symbol: sym("app.core-test/targeted"), Kind: symgraph.KindTest,
		File: "app/core_test.clj", Line: 5, EndLine: 7,
		Metadata: symgraph.Metadata{IsTest: true, TestTargets: symbol.NewSet(sym("app.util/unrelated"))},
	}
	g.Nodes[sym("app.integration.smoke-test/regular")] = &symgraph.Node{
		Symbol: sym("app.integration.smoke-test/regular"), Kind: symgraph.KindTest,
		File: "app/smoke_test.clj", Line: 1, EndLine: 3,
		Metadata: symgraph.Metadata{IsTest: true, IsIntegration: true},
	}

	g.Edges = []symgraph.Edge{
		{From: sym("app.core-test/regular"), To: sym("app.core/helper"), File: "app/core_test.clj", Line: 2},
		{From: sym("app.core/helper"), To: sym("app.core/handler"), File: "app/core.clj", Line: 1},
	}

	g.ContentHashes = map[symbol.Symbol]string{
		sym("app.core/handler"):                     "hash-handler-v1",
		sym("app.core/helper"):                       "hash-helper-v1",
		sym("app.util/unrelated"):                     "hash-unrelated-v1",
		sym("app.core-test/regular"):                  "hash-test-regular-v1",
		sym("app.core-test/targeted"):                 "hash-test-targeted-v1",
		sym("app.integration.smoke-test/regular"):     "hash-test-integration-v1",
	}
	return g
}

func TestSelect_EmptyBaselineFastPath(t *testing.T) {
	g := buildGraph()
	sel := Select(g, nil, Options{})

	assert.Len(t, sel.Tests, 3)
	for _, ts := range sel.Tests {
		assert.Equal(t, ReasonNoBaseline, ts.Reason)
	}
}

func TestSelect_AllTestsPath(t *testing.T) {
	g := buildGraph()
	baseline := map[symbol.Symbol]string{sym("app.core/handler"): "hash-handler-v1"}
	sel := Select(g, baseline, Options{AllTests: true})

	assert.Len(t, sel.Tests, 3)
	for _, ts := range sel.Tests {
		assert.Equal(t, ReasonAllTestsRequested, ts.Reason)
	}
}

func TestSelect_RegularTestSelectedWhenReachableChanged(t *testing.T) {
	g := buildGraph()
	baseline := map[symbol.Symbol]string{
		sym("app.core/handler"):                 "STALE",
		sym("app.core/helper"):                  "hash-helper-v1",
		sym("app.util/unrelated"):                "hash-unrelated-v1",
		sym("app.core-test/regular"):             "hash-test-regular-v1",
		sym("app.core-test/targeted"):            "hash-test-targeted-v1",
		sym("app.integration.smoke-test/regular"): "hash-test-integration-v1",
	}
	sel := Select(g, baseline, Options{})

	assert.True(t, sel.ChangedSymbols.Has(sym("app.core/handler")))
	testSyms := sel.TestSymbols()
	assert.Contains(t, testSyms, sym("app.core-test/regular"))
	assert.NotContains(t, testSyms, sym("app.core-test/targeted"))
}

func TestSelect_TargetedTestSelectedOnlyWhenTargetChanged(t *testing.T) {
	g := buildGraph()
	baseline := map[symbol.Symbol]string{
		sym("app.core/handler"):                 "hash-handler-v1",
		sym("app.core/helper"):                  "hash-helper-v1",
		sym("app.util/unrelated"):                "STALE",
		sym("app.core-test/regular"):             "hash-test-regular-v1",
		sym("app.core-test/targeted"):            "hash-test-targeted-v1",
		sym("app.integration.smoke-test/regular"): "hash-test-integration-v1",
	}
	sel := Select(g, baseline, Options{})

	testSyms := sel.TestSymbols()
	assert.Contains(t, testSyms, sym("app.core-test/targeted"))
	assert.NotContains(t, testSyms, sym("app.core-test/regular"))
}

func TestSelect_IntegrationAlwaysSelected(t *testing.T) {
	g := buildGraph()
	baseline := g.ContentHashes // nothing changed
	sel := Select(g, cloneHashes(baseline), Options{})

	testSyms := sel.TestSymbols()
	assert.Contains(t, testSyms, sym("app.integration.smoke-test/regular"))
	assert.Empty(t, sel.ChangedSymbols)
}

func TestSelect_DeletionsAreNotChanges(t *testing.T) {
	g := buildGraph()
	baseline := cloneHashes(g.ContentHashes)
	baseline[sym("app.deleted/gone")] = "some-old-hash"

	sel := Select(g, baseline, Options{})
	assert.False(t, sel.ChangedSymbols.Has(sym("app.deleted/gone")))
}

func TestSelect_ReverseIndexAndFallbackAgree(t *testing.T) {
	g := buildGraph()
	baseline := cloneHashes(g.ContentHashes)
	baseline[sym("app.core/handler")] = "STALE"

	without := Select(g, baseline, Options{})

	dg := depgraph.FromSymbolGraph(g)
	rev := dg.ReverseIndex()
	with := Select(g, baseline, Options{ReverseIndex: rev})

	assert.ElementsMatch(t, without.TestSymbols(), with.TestSymbols())
}

func TestSelect_RegularTestSelectedWhenItsOwnDefinitionChangedViaReverseIndex(t *testing.T) {
	g := buildGraph()
	baseline := cloneHashes(g.ContentHashes)
	// Only the test's own body changed — nothing it calls did, so it is not
	// in any rev[c] for a changed c other than itself.
	baseline[sym("app.core-test/regular")] = "STALE"

	dg := depgraph.FromSymbolGraph(g)
	rev := dg.ReverseIndex()
	sel := Select(g, baseline, Options{ReverseIndex: rev})

	assert.Contains(t, sel.TestSymbols(), sym("app.core-test/regular"))
}

func TestSelect_UntestedUsagesReport(t *testing.T) {
	g := symgraph.NewGraph()
	g.Nodes[sym("app.core/orphan")] = &symgraph.Node{Symbol: sym("app.core/orphan"), Kind: symgraph.KindVar, File: "f.clj", Line: 1, EndLine: 1}
	g.Nodes[sym("app.core/caller")] = &symgraph.Node{Symbol: sym("app.core/caller"), Kind: symgraph.KindVar, File: "f.clj", Line: 2, EndLine: 2}
	g.Edges = []symgraph.Edge{{From: sym("app.core/caller"), To: sym("app.core/orphan"), File: "f.clj", Line: 2}}
	g.ContentHashes = map[symbol.Symbol]string{
		sym("app.core/orphan"): "h1",
		sym("app.core/caller"): "h2",
	}

	// A non-empty but unrelated baseline entry avoids the empty-baseline
	// fast path while still leaving every real symbol "changed".
	sel := Select(g, map[symbol.Symbol]string{sym("unrelated/x"): "z"}, Options{})

	require.Contains(t, sel.UntestedUsages, sym("app.core/orphan"))
	assert.True(t, sel.UntestedUsages[sym("app.core/orphan")].Has(sym("app.core/caller")))
}

func TestMarkVerified_AllMergesEveryChangedHash(t *testing.T) {
	g := buildGraph()
	baseline := cloneHashes(g.ContentHashes)
	baseline[sym("app.core/handler")] = "STALE"
	sel := Select(g, baseline, Options{})

	result, err := MarkVerified(sel, AllTestsRun())
	require.NoError(t, err)
	assert.Equal(t, "hash-handler-v1", result.Merged[sym("app.core/handler")])
}

func TestMarkVerified_ExplicitListOnlyCoversReachableChanges(t *testing.T) {
	g := buildGraph()
	baseline := cloneHashes(g.ContentHashes)
	baseline[sym("app.core/handler")] = "STALE"
	baseline[sym("app.util/unrelated")] = "STALE"
	sel := Select(g, baseline, Options{})

	result, err := MarkVerified(sel, ExplicitTestsRun([]symbol.Symbol{sym("app.core-test/regular")}))
	require.NoError(t, err)

	assert.Contains(t, result.Merged, sym("app.core/handler"))
	assert.Contains(t, result.Skipped, sym("app.util/unrelated"))
}

func TestMarkAllVerified_OverwritesWholesale(t *testing.T) {
	current := map[symbol.Symbol]string{sym("a/b"): "h1"}
	out := MarkAllVerified(current)
	assert.Equal(t, current, out)
}
