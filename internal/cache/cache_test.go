// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBaseline_AbsentIsEmptyMap(t *testing.T) {
	c := openTestCache(t)
	assert.Empty(t, c.LoadBaseline())
}

func TestBaseline_SaveAndLoadRoundTrip(t *testing.T) {
	c := openTestCache(t)
	sym := symbol.MustParse("app.core/handler")
	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{sym: "hash1"}))

	loaded := c.LoadBaseline()
	assert.Equal(t, "hash1", loaded[sym])
}

func TestBaseline_UpdateMerges(t *testing.T) {
	c := openTestCache(t)
	a := symbol.MustParse("app.core/a")
	b := symbol.MustParse("app.core/b")

	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{a: "h1"}))
	require.NoError(t, c.UpdateBaseline(map[symbol.Symbol]string{b: "h2"}))

	loaded := c.LoadBaseline()
	assert.Equal(t, "h1", loaded[a])
	assert.Equal(t, "h2", loaded[b])
}

func TestBaseline_SymbolKeyEncodingSurvivesMangledNames(t *testing.T) {
	c := openTestCache(t)
	mangled := symbol.New("app.core-test", "__handles-weird-chars:-a-b-c__")
	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{mangled: "h"}))

	loaded := c.LoadBaseline()
	assert.Equal(t, "h", loaded[mangled])
}

func TestBaseline_ClearRemovesIt(t *testing.T) {
	c := openTestCache(t)
	sym := symbol.MustParse("app.core/a")
	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{sym: "h"}))
	require.NoError(t, c.ClearBaseline())
	assert.Empty(t, c.LoadBaseline())
}

func TestAnalysis_AbsentIsAbsent(t *testing.T) {
	c := openTestCache(t)
	_, ok := c.LoadAnalysis()
	assert.False(t, ok)
}

func TestAnalysis_SaveAndLoadRoundTrip(t *testing.T) {
	c := openTestCache(t)

	g := symgraph.NewGraph()
	sym := symbol.MustParse("app.core/handler")
	g.Nodes[sym] = &symgraph.Node{Symbol: sym, Kind: symgraph.KindVar, File: "app/core.clj", Line: 1, EndLine: 2}
	g.ContentHashes[sym] = "hash1"

	require.NoError(t, c.SaveAnalysis(g, []string{"app/core.clj"}, nil))

	snap, ok := c.LoadAnalysis()
	require.True(t, ok)
	assert.Equal(t, []string{"app/core.clj"}, snap.Paths)
	assert.Equal(t, "hash1", snap.ContentHashes[sym.String()])

	rebuilt, _, err := snap.ToGraph()
	require.NoError(t, err)
	assert.Contains(t, rebuilt.Nodes, sym)
}

func TestAnalysis_ClearRemovesItOnly(t *testing.T) {
	c := openTestCache(t)
	g := symgraph.NewGraph()
	require.NoError(t, c.SaveAnalysis(g, nil, nil))
	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{symbol.MustParse("a/b"): "h"}))

	require.NoError(t, c.ClearAnalysis())

	_, ok := c.LoadAnalysis()
	assert.False(t, ok)
	assert.NotEmpty(t, c.LoadBaseline())
}

func TestClearAll_RemovesBoth(t *testing.T) {
	c := openTestCache(t)
	g := symgraph.NewGraph()
	require.NoError(t, c.SaveAnalysis(g, nil, nil))
	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{symbol.MustParse("a/b"): "h"}))

	require.NoError(t, c.ClearAll())

	_, ok := c.LoadAnalysis()
	assert.False(t, ok)
	assert.Empty(t, c.LoadBaseline())
}

func TestStatus_ReportsExistenceAndSize(t *testing.T) {
	c := openTestCache(t)
	status := c.Status()
	assert.False(t, status.Analysis.Exists)
	assert.False(t, status.Baseline.Exists)

	require.NoError(t, c.SaveBaseline(map[symbol.Symbol]string{symbol.MustParse("a/b"): "h"}))
	status = c.Status()
	assert.True(t, status.Baseline.Exists)
	assert.Greater(t, status.Baseline.SizeBytes, int64(0))
	assert.NotEqual(t, "-", status.Baseline.HumanSize())
}
