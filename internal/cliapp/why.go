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

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

// newWhyCommand explains a selection by printing the shortest-path witness
// from a test to a changed symbol, grounded on the teacher's find_path
// tool (services/trace/cli/tools/tool_find_path.go) generalized from a
// source-graph path query to the dependency graph's usage-reachability
// witness.
func newWhyCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "why <test> <symbol>",
		Short: "Explain why a test was selected via its shortest usage path to a changed symbol.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			test, err := symbol.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing test symbol %q: %w", args[0], err)
			}
			target, err := symbol.Parse(args[1])
			if err != nil {
				return fmt.Errorf("parsing target symbol %q: %w", args[1], err)
			}

			sel, _, err := e.Select(cmd.Context(), false)
			if err != nil {
				return err
			}

			trace := sel.Trace(test)
			path, ok := trace[target]
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s does not reach a changed %s through any recorded usage\n", test, target)
				return nil
			}

			out := cmd.OutOrStdout()
			for i, sym := range path {
				if i > 0 {
					fmt.Fprint(out, " -> ")
				}
				fmt.Fprint(out, sym)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	return cmd
}
