// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import "github.com/aleutianlabs/testscope/internal/facts"

// ErrorResponse is the body of every non-2xx response, matching the
// teacher's {error, code} shape (services/trace/handlers_debug.go).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AnalyzeRequest is the body of POST /v1/testscope/analyze. Facts is the
// analyzer's output verbatim (spec.md §6 analyzer contract); testscope
// never produces it itself.
type AnalyzeRequest struct {
	Facts *facts.Facts `json:"facts" binding:"required"`
	Paths []string     `json:"paths"`
}

// SelectResponse mirrors selector.Selection for JSON transport.
type SelectResponse struct {
	Tests           []SelectedTestJSON `json:"tests"`
	ChangedSymbols  int                `json:"changed_symbols"`
	SelectedTests   int                `json:"selected_tests"`
	TotalTests      int                `json:"total_tests"`
	UntestedUsages  int                `json:"untested_usages"`
	SelectionRate   float64            `json:"selection_rate_pct"`
}

// SelectedTestJSON is one row of SelectResponse.Tests.
type SelectedTestJSON struct {
	Test   string `json:"test"`
	Reason string `json:"reason"`
}

// MarkVerifiedRequest is the body of POST /v1/testscope/mark-verified.
type MarkVerifiedRequest struct {
	All   bool     `json:"all"`
	Tests []string `json:"tests" binding:"omitempty,dive,fqs"`
}

// MarkVerifiedResponse reports what changed in the baseline.
type MarkVerifiedResponse struct {
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// StatusResponse mirrors cache.Status for JSON transport.
type StatusResponse struct {
	Analysis EntryStatusJSON `json:"analysis"`
	Baseline EntryStatusJSON `json:"baseline"`
}

// EntryStatusJSON mirrors cache.EntryStatus for JSON transport.
type EntryStatusJSON struct {
	Exists       bool   `json:"exists"`
	SizeBytes    int64  `json:"size_bytes"`
	LastModified string `json:"last_modified,omitempty"`
}
