// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.clj"), []byte("(ns app.core)\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestUncommittedFiles_TrackedModification(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.clj"), []byte("(ns app.core)\n(defn f [])\n"), 0o644))

	g := New(dir)
	files, err := g.UncommittedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, files, "core.clj")
}

func TestUncommittedFiles_UntrackedFile(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.clj"), []byte("(ns app.new)\n"), 0o644))

	g := New(dir)
	files, err := g.UncommittedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, files, "new.clj")
}

func TestUncommittedFiles_CleanTreeIsEmpty(t *testing.T) {
	dir := initRepo(t)

	g := New(dir)
	files, err := g.UncommittedFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUncommittedFiles_NonRepoIsEmptyNotError(t *testing.T) {
	g := New(t.TempDir())
	files, err := g.UncommittedFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiffFilePath_StripsPrefixAndHandlesDevNull(t *testing.T) {
	assert.Equal(t, "core.clj", diffFilePath("a/core.clj"))
	assert.Equal(t, "core.clj", diffFilePath("b/core.clj"))
	assert.Equal(t, "", diffFilePath("/dev/null"))
	assert.Equal(t, "", diffFilePath(""))
}
