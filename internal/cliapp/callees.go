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

// newCalleesCommand lists the symbols that a given symbol directly uses,
// grounded on the teacher's find_callees tool (services/trace/cli/tools/
// tool_find_callees.go), narrowed to a single direct-edge lookup over the
// FQS graph.
func newCalleesCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callees <symbol>",
		Short: "List the symbols that a given symbol directly uses.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			source, err := symbol.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing symbol %q: %w", args[0], err)
			}

			g, _, err := e.LoadGraph()
			if err != nil {
				return err
			}

			callees := symbol.NewSet()
			for _, edge := range g.Edges {
				if edge.From == source {
					callees.Add(edge.To)
				}
			}

			printSymbolSet(cmd, callees, "callee")
			return nil
		},
	}
	return cmd
}
