// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	c, err := cache.Open("", cache.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return engine.New("", c, symgraph.NewBuilder(), 0, nil)
}

func writeFacts(t *testing.T, path string, f *facts.Facts) {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestRun_FirstCycleRunsImmediatelyWithoutAnyEvent(t *testing.T) {
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "core.clj")
	require.NoError(t, os.WriteFile(srcFile, []byte("(ns app.core)\n(defn handler [] 1)\n"), 0o644))

	factsPath := filepath.Join(dir, "facts.json")
	writeFacts(t, factsPath, &facts.Facts{
		Namespaces:  []facts.NamespaceDef{{Namespace: "app.core", File: srcFile, StartLine: 1, EndLine: 1}},
		Definitions: []facts.VarDef{{Namespace: "app.core", Name: "handler", File: srcFile, StartLine: 2, EndLine: 2}},
	})

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())

	cycles := make(chan Cycle, 4)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, e, Options{
			Paths:     []string{dir},
			FactsPath: factsPath,
			Debounce:  10 * time.Millisecond,
		}, func(c Cycle) { cycles <- c })
	}()

	select {
	case c := <-cycles:
		require.NoError(t, c.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first watch cycle")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_FileChangeTriggersAnotherCycle(t *testing.T) {
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "core.clj")
	require.NoError(t, os.WriteFile(srcFile, []byte("(ns app.core)\n(defn handler [] 1)\n"), 0o644))

	factsPath := filepath.Join(dir, "facts.json")
	writeFacts(t, factsPath, &facts.Facts{
		Namespaces:  []facts.NamespaceDef{{Namespace: "app.core", File: srcFile, StartLine: 1, EndLine: 1}},
		Definitions: []facts.VarDef{{Namespace: "app.core", Name: "handler", File: srcFile, StartLine: 2, EndLine: 2}},
	})

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycles := make(chan Cycle, 4)
	go Run(ctx, e, Options{
		Paths:     []string{dir},
		FactsPath: factsPath,
		Debounce:  10 * time.Millisecond,
	}, func(c Cycle) { cycles <- c })

	select {
	case <-cycles:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first watch cycle")
	}

	require.NoError(t, os.WriteFile(srcFile, []byte("(ns app.core)\n(defn handler [] 2)\n"), 0o644))

	select {
	case c := <-cycles:
		require.NoError(t, c.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the second watch cycle")
	}
}
