// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hasher maps (file, start_line, end_line) to a content fingerprint
// that is stable across docstring and whitespace-only edits but changes on
// any other textual change (spec.md §4.3, component C3).
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// Hash computes the normalized content fingerprint for the fragment
// [startLine, endLine] (1-indexed, inclusive) of file.
//
// Description:
//
//	Never returns an error: any extraction or normalization failure is
//	converted to absent (ok == false), per spec.md §4.3 "Failure" — a
//	missing hash must trigger conservative over-selection upstream, never
//	a propagated error.
//
// Outputs:
//
//	hash - A 64-hex-character lowercase SHA-256 digest, or "" if absent.
//	ok   - false if the file could not be read or the line range is out
//	       of bounds.
func Hash(file string, startLine, endLine int) (hash string, ok bool) {
	lines, err := readLines(file)
	if err != nil {
		return "", false
	}
	return HashLines(lines, startLine, endLine)
}

// HashLines is Hash's pure core, operating on an already-read lines vector
// so the bulk interface (BulkHash) can read a file once and reuse it for
// every symbol defined within it (spec.md §4.3 "Bulk interface").
func HashLines(lines []string, startLine, endLine int) (hash string, ok bool) {
	fragment, ok := extract(lines, startLine, endLine)
	if !ok {
		return "", false
	}
	normalized := normalize(fragment)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), true
}

// extract slices lines[startLine-1:endLine] and joins with "\n", returning
// ok=false if either bound is out of range (spec.md §4.3 algorithm step 1).
func extract(lines []string, startLine, endLine int) (string, bool) {
	if startLine < 1 || endLine < startLine || endLine > len(lines) {
		return "", false
	}
	return strings.Join(lines[startLine-1:endLine], "\n"), true
}

// readLines reads file as a vector of lines (1-indexed by position+1),
// splitting on "\n" and trimming a single trailing "\r" per line to
// tolerate CRLF source files without treating the carriage return as
// textual content.
func readLines(file string) ([]string, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(raw), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
