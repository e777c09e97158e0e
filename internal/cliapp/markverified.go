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

	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

func newMarkVerifiedCommand(flags *rootFlags) *cobra.Command {
	var tests []string
	var all bool

	cmd := &cobra.Command{
		Use:   "mark-verified",
		Short: "Update the verified baseline from the last selection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			sel, g, err := e.Select(cmd.Context(), false)
			if err != nil {
				return err
			}

			if all {
				if err := e.MarkAllVerified(g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "baseline overwritten with %d symbol hash(es)\n", len(g.ContentHashes))
				return nil
			}

			run := selector.AllTestsRun()
			if len(tests) > 0 {
				syms := make([]symbol.Symbol, 0, len(tests))
				for _, t := range tests {
					sym, err := symbol.Parse(t)
					if err != nil {
						return &selector.InvalidTestsRunError{Value: t}
					}
					syms = append(syms, sym)
				}
				run = selector.ExplicitTestsRun(syms)
			}

			result, err := e.MarkVerified(sel, run)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "merged %d symbol hash(es) into baseline\n", len(result.Merged))
			if len(result.Skipped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d changed symbol(s) remain unverified\n", len(result.Skipped))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tests, "tests", nil, "explicit list of test FQS that ran (default: all selected tests ran)")
	cmd.Flags().BoolVar(&all, "all", false, "adopt the engine on this project: overwrite the baseline wholesale")
	return cmd
}
