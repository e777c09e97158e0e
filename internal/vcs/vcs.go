// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vcs implements the optional VCS contract (spec.md §6:
// "uncommitted_files() → set<path>. Optional — if unavailable, the patch
// facility is simply unused; the core functions correctly without it.").
//
// It shells out to git and parses the unified diff it produces with
// sourcegraph/go-diff rather than scraping `git status` output by hand,
// so rename and copy-detection hunks are handled the same way any other
// diff-consuming tool would.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Git implements the uncommitted-files contract against a local git
// checkout rooted at Dir.
//
// Thread Safety: safe for concurrent use; each call shells out
// independently.
type Git struct {
	// Dir is the git working tree root. Required.
	Dir string
}

// New returns a Git VCS collaborator rooted at dir.
func New(dir string) *Git { return &Git{Dir: dir} }

// UncommittedFiles returns the set of paths with uncommitted changes
// (staged, unstaged, and untracked), relative to Dir.
//
// Description:
//
//	Runs `git diff HEAD --unified=0`, parsed with go-diff, for tracked
//	changes and `git ls-files
//	--others --exclude-standard` for untracked files, unioning the results.
//	If git is unavailable or Dir is not a repository, returns an empty set
//	and a nil error — per spec.md §6 this collaborator is optional, and its
//	absence must never fail the engine.
func (g *Git) UncommittedFiles(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})

	tracked, err := g.trackedDiffPaths(ctx)
	if err != nil {
		return out, nil //nolint:nilerr // optional collaborator: absence is not failure
	}
	for _, p := range tracked {
		out[p] = struct{}{}
	}

	untracked, err := g.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return out, nil //nolint:nilerr
	}
	for _, line := range splitLines(untracked) {
		out[line] = struct{}{}
	}

	return out, nil
}

// trackedDiffPaths parses `git diff HEAD` with go-diff instead of relying
// on --name-only, so this also serves as the entry point a caller can
// extend to inspect per-hunk line ranges later (e.g. narrowing rehash to
// exactly the changed lines).
func (g *Git) trackedDiffPaths(ctx context.Context) ([]string, error) {
	raw, err := g.run(ctx, "diff", "HEAD", "--unified=0")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing git diff output: %w", err)
	}

	paths := make([]string, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		if p := diffFilePath(fd.NewName); p != "" {
			paths = append(paths, p)
			continue
		}
		if p := diffFilePath(fd.OrigName); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// diffFilePath strips the a/ or b/ prefix go-diff preserves from unified
// diff headers, and reports "" for the /dev/null sentinel used on
// create/delete hunks.
func diffFilePath(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
