// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hasher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

func mustSym(s string) symbol.Symbol { return symbol.MustParse(s) }

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.clj")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestHash_OutOfRangeIsAbsent(t *testing.T) {
	path := writeFixture(t, "(ns a)\n(defn f [] 1)\n")
	_, ok := Hash(path, 10, 20)
	assert.False(t, ok)
}

func TestHash_UnreadableFileIsAbsent(t *testing.T) {
	_, ok := Hash("/nonexistent/file.clj", 1, 1)
	assert.False(t, ok)
}

func TestHash_DocstringChangeDoesNotAffectHash(t *testing.T) {
	a := "(defn f\n  \"original docstring\"\n  [x]\n  (inc x))"
	b := "(defn f\n  \"a completely different docstring, much longer too\"\n  [x]\n  (inc x))"

	ha := sha(t, a)
	hb := sha(t, b)
	assert.Equal(t, ha, hb)
}

func TestHash_WhitespaceChangeDoesNotAffectHash(t *testing.T) {
	a := "(defn f [x]\n  (inc x))"
	b := "(defn   f   [x]\n\n\n  (inc   x))"

	assert.Equal(t, sha(t, a), sha(t, b))
}

func TestHash_BodyChangeAffectsHash(t *testing.T) {
	a := "(defn f [x] (inc x))"
	b := "(defn f [x] (dec x))"

	assert.NotEqual(t, sha(t, a), sha(t, b))
}

func TestHash_DocstringAfterArgVectorIsStripped(t *testing.T) {
	a := "(defn f [x] \"doc after args\" (inc x))"
	b := "(defn f [x] \"entirely different doc\" (inc x))"
	assert.Equal(t, sha(t, a), sha(t, b))
}

func TestHash_StringLiteralInBodyIsNotMistakenForDocstring(t *testing.T) {
	a := `(defn f [x] (str "literal (with a paren" x))`
	b := `(defn f [x] (str "a different literal (with a paren" x))`
	assert.NotEqual(t, sha(t, a), sha(t, b), "a non-docstring literal must affect the hash")
}

func TestHash_Format(t *testing.T) {
	path := writeFixture(t, "(defn f [] 1)")
	h, ok := Hash(path, 1, 1)
	require.True(t, ok)
	assert.Len(t, h, 64)
}

func TestBulkHash_GroupsReadsByFile(t *testing.T) {
	path := writeFixture(t, "(defn a [] 1)\n(defn b [] 2)\n")
	targets := []Target{
		{Symbol: mustSym("ns/a"), File: path, StartLine: 1, EndLine: 1},
		{Symbol: mustSym("ns/b"), File: path, StartLine: 2, EndLine: 2},
	}

	results := BulkHash(context.Background(), targets, 2)
	assert.Len(t, results, 2)
	assert.NotEqual(t, results[mustSym("ns/a")], results[mustSym("ns/b")])
}

func TestBulkHash_UnreadableFileYieldsEmptyContribution(t *testing.T) {
	targets := []Target{
		{Symbol: mustSym("ns/a"), File: "/nonexistent/file.clj", StartLine: 1, EndLine: 1},
	}
	results := BulkHash(context.Background(), targets, 1)
	assert.Empty(t, results)
}

func sha(t *testing.T, contents string) string {
	t.Helper()
	path := writeFixture(t, contents)
	lineCount := 1
	for _, c := range contents {
		if c == '\n' {
			lineCount++
		}
	}
	h, ok := Hash(path, 1, lineCount)
	require.True(t, ok)
	return h
}
