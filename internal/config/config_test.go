// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_EmptyProjectRootIsNotAnError(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	contents := "primary_dialect: clj\nexcluded_dialect_suffix: \"$macroexpand\"\ntest_macros:\n  - my.ns/deftest-async\nworker_count: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "clj", cfg.PrimaryDialect)
	assert.Equal(t, "$macroexpand", cfg.ExcludedDialectSuffix)
	assert.Equal(t, []string{"my.ns/deftest-async"}, cfg.TestMacros)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoad_InvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not: [valid"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEffectivePaths_DefaultsToProjectRoot(t *testing.T) {
	var cfg Config
	assert.Equal(t, []string{"/proj"}, cfg.EffectivePaths("/proj"))

	cfg.Paths = []string{"src", "test"}
	assert.Equal(t, []string{"src", "test"}, cfg.EffectivePaths("/proj"))
}
