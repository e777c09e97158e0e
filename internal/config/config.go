// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads user-provided project overrides from a YAML file at
// the project root. A missing file is not an error — zero-config works out
// of the box, matching the ambient configuration story this repo's
// components otherwise share.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aleutianlabs/testscope/internal/facts"
)

// FileName is the project-root config file name.
const FileName = "testscope.yaml"

// Config holds user-provided overrides for analysis and selection.
//
// Description:
//
//	Loaded from <projectRoot>/testscope.yaml. All fields are optional.
//
// Thread Safety: Safe for concurrent reads after construction.
type Config struct {
	// PrimaryDialect is the analyzer dialect tag to keep: facts.Filter drops
	// every fact tagged with another dialect and keeps untagged facts.
	PrimaryDialect string `yaml:"primary_dialect"`

	// ExcludedDialectSuffix suppresses definitions/usages/namespaces whose
	// file path ends with this suffix (e.g. ".cljs").
	ExcludedDialectSuffix string `yaml:"excluded_dialect_suffix"`

	// TestMacros lists additional fully-qualified macro names (beyond the
	// built-in deftest/defspec) that introduce a synthesized test node.
	TestMacros []string `yaml:"test_macros"`

	// Paths lists the source roots to analyze. Defaults to the project
	// root itself when empty.
	Paths []string `yaml:"paths"`

	// CacheDir overrides the default project-local cache directory.
	CacheDir string `yaml:"cache_dir"`

	// WorkerCount bounds how many files bulk hashing reads in parallel.
	// Zero means no limit.
	WorkerCount int `yaml:"worker_count"`
}

// Load reads testscope.yaml from projectRoot. If projectRoot is empty or
// the file does not exist, it returns a zero-value Config with no error.
//
// Inputs:
//
//	projectRoot - Absolute path to the project root. May be empty.
//
// Outputs:
//
//	Config - The parsed config, or a zero-value Config if the file is
//	missing.
//	error - Non-nil only if the file exists but has invalid YAML.
//
// Thread Safety: Safe for concurrent use (stateless function).
func Load(projectRoot string) (Config, error) {
	if projectRoot == "" {
		return Config{}, nil
	}

	path := filepath.Join(projectRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return cfg, nil
}

// AnalyzerConfig projects Config down to the subset the analyzer contract
// (spec.md §6) consumes.
func (c Config) AnalyzerConfig() facts.AnalyzerConfig {
	return facts.AnalyzerConfig{
		PrimaryDialect:        facts.Dialect(c.PrimaryDialect),
		ExcludedDialectSuffix: c.ExcludedDialectSuffix,
	}
}

// EffectivePaths returns c.Paths, defaulting to {projectRoot} when empty.
func (c Config) EffectivePaths(projectRoot string) []string {
	if len(c.Paths) > 0 {
		return c.Paths
	}
	return []string{projectRoot}
}
