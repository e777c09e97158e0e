// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := cache.Open("", cache.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return New("", c, symgraph.NewBuilder(), 0, nil)
}

func writeFixture(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestEngine_AnalyzeThenSelect_NoBaselineSelectsAll(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "core_test.clj", "(ns app.core-test)\n\n(deftest handler-test\n  (is (= 1 1)))\n")

	e := newTestEngine(t)
	f := &facts.Facts{
		Namespaces: []facts.NamespaceDef{{Namespace: "app.core-test", File: file, StartLine: 1, EndLine: 1}},
		Usages: []facts.Usage{
			{Namespace: "app.core-test", ToNamespace: "clojure.test", ToName: "deftest", File: file, Line: 3},
		},
	}

	_, err := e.Analyze(context.Background(), f, facts.AnalyzerConfig{}, []string{file})
	require.NoError(t, err)

	sel, g, err := e.Select(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, selector.ReasonNoBaseline, sel.Tests[0].Reason)
}

func TestEngine_MarkAllVerifiedThenSelectFindsNoChanges(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "core.clj", "(ns app.core)\n(defn handler [] 1)\n")

	e := newTestEngine(t)
	f := &facts.Facts{
		Namespaces:  []facts.NamespaceDef{{Namespace: "app.core", File: file, StartLine: 1, EndLine: 1}},
		Definitions: []facts.VarDef{{Namespace: "app.core", Name: "handler", File: file, StartLine: 2, EndLine: 2}},
	}
	_, err := e.Analyze(context.Background(), f, facts.AnalyzerConfig{}, []string{file})
	require.NoError(t, err)

	_, g, err := e.Select(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, e.MarkAllVerified(g))

	sel2, _, err := e.Select(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, sel2.ChangedSymbols)
}

// TestEngine_SampleProjectFixture_EmptyBaselineSelectsDeftestNode exercises
// the end-to-end pipeline against testdata/sample-project, a small
// Clojure-like project whose facts.json declares a deftest usage on
// app.core-test/handler-test. With no baseline, Select must fall back to
// "select everything" and that fallback must include the macro-synthesized
// test node, not just the plain var defs.
func TestEngine_SampleProjectFixture_EmptyBaselineSelectsDeftestNode(t *testing.T) {
	sampleDir := filepath.Join("..", "..", "testdata", "sample-project")
	file, err := os.Open(filepath.Join(sampleDir, "facts.json"))
	require.NoError(t, err)
	defer file.Close()

	f, err := facts.Decode(file)
	require.NoError(t, err)

	// facts.json stores file paths relative to the fixture's own directory
	// (matching what a real analyzer run against that project would emit);
	// resolve them against sampleDir since macro-test synthesis re-reads the
	// source file at the recorded line.
	for i := range f.Definitions {
		f.Definitions[i].File = filepath.Join(sampleDir, f.Definitions[i].File)
	}
	for i := range f.Usages {
		f.Usages[i].File = filepath.Join(sampleDir, f.Usages[i].File)
	}
	for i := range f.Namespaces {
		f.Namespaces[i].File = filepath.Join(sampleDir, f.Namespaces[i].File)
	}

	e := newTestEngine(t)
	_, err = e.Analyze(context.Background(), f, facts.AnalyzerConfig{}, nil)
	require.NoError(t, err)

	sel, _, err := e.Select(context.Background(), false)
	require.NoError(t, err)
	require.NotEmpty(t, sel.Tests)

	want := symbol.New("app.core-test", "__handler-test__")
	var foundDeftestNode bool
	for _, ts := range sel.Tests {
		if ts.Symbol == want {
			foundDeftestNode = true
			assert.Equal(t, selector.ReasonNoBaseline, ts.Reason)
		}
	}
	assert.True(t, foundDeftestNode, "expected deftest-synthesized test node %s to be selected", want)
}

func TestEngine_ClearRemovesSnapshotOnly(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "core.clj", "(ns app.core)\n")

	e := newTestEngine(t)
	f := &facts.Facts{Namespaces: []facts.NamespaceDef{{Namespace: "app.core", File: file, StartLine: 1, EndLine: 1}}}
	_, err := e.Analyze(context.Background(), f, facts.AnalyzerConfig{}, []string{file})
	require.NoError(t, err)
	require.NoError(t, e.Cache.SaveBaseline(map[symbol.Symbol]string{symbol.MustParse("a/b"): "h"}))

	require.NoError(t, e.Clear(false))

	status := e.Status()
	assert.False(t, status.Analysis.Exists)
	assert.True(t, status.Baseline.Exists)
}
