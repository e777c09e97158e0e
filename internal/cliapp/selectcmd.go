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
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/metrics"
	"github.com/aleutianlabs/testscope/internal/selector"
)

func newSelectCommand(flags *rootFlags) *cobra.Command {
	var allTests bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Load the snapshot and baseline, compute the test selection, and print it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			shutdown, err := setupTracing(cmd, flags)
			if err != nil {
				return err
			}
			defer shutdown()

			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			sel, _, err := e.Select(cmd.Context(), allTests)
			if err != nil {
				return err
			}
			metrics.RecordSelection(sel)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(selectionJSON(sel))
			}

			printSelection(cmd.OutOrStdout(), sel)
			return nil
		},
	}

	cmd.Flags().BoolVar(&allTests, "all", false, "force selection of every test")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the selection as JSON instead of a table")
	return cmd
}

type selectionTestJSON struct {
	Test   string `json:"test"`
	Reason string `json:"reason"`
}

type selectionOutput struct {
	Tests          []selectionTestJSON `json:"tests"`
	ChangedSymbols int                 `json:"changed_symbols"`
	SelectedTests  int                 `json:"selected_tests"`
	TotalTests     int                 `json:"total_tests"`
	UntestedUsages int                 `json:"untested_usages"`
}

func selectionJSON(sel *selector.Selection) selectionOutput {
	out := selectionOutput{
		Tests:          make([]selectionTestJSON, len(sel.Tests)),
		ChangedSymbols: sel.Stats.ChangedSymbols,
		SelectedTests:  sel.Stats.SelectedTests,
		TotalTests:     sel.Stats.TotalTests,
		UntestedUsages: sel.Stats.UntestedUsages,
	}
	for i, ts := range sel.Tests {
		out.Tests[i] = selectionTestJSON{Test: ts.Symbol.String(), Reason: string(ts.Reason)}
	}
	return out
}
