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
	"sort"

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

// newCallersCommand lists the symbols that directly use a given symbol
// (spec.md §3 "Usage edge", direction A -> B meaning "A uses B"), grounded
// on the teacher's find_callers tool (services/trace/cli/tools/
// tool_find_callers.go) narrowed from its name-indexed, inheritance-aware
// search down to a single direct-edge lookup over the FQS graph.
func newCallersCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callers <symbol>",
		Short: "List the symbols that directly use a given symbol.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			target, err := symbol.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing symbol %q: %w", args[0], err)
			}

			g, _, err := e.LoadGraph()
			if err != nil {
				return err
			}

			callers := symbol.NewSet()
			for _, edge := range g.Edges {
				if edge.To == target {
					callers.Add(edge.From)
				}
			}

			printSymbolSet(cmd, callers, "caller")
			return nil
		},
	}
	return cmd
}

// printSymbolSet renders a set of symbols sorted by string form, one per
// line, or a "no <label>s found" message when empty.
func printSymbolSet(cmd *cobra.Command, set symbol.Set, label string) {
	out := cmd.OutOrStdout()
	if len(set) == 0 {
		fmt.Fprintf(out, "no %ss found\n", label)
		return
	}
	syms := set.Slice()
	sort.Slice(syms, func(i, j int) bool { return syms[i].String() < syms[j].String() })
	for _, sym := range syms {
		fmt.Fprintln(out, sym)
	}
}
