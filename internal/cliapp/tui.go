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
	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/tui"
)

func newTUICommand(flags *rootFlags) *cobra.Command {
	var allTests bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open a read-only viewer over the current selection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			sel, _, err := e.Select(cmd.Context(), allTests)
			if err != nil {
				return err
			}
			return tui.Run(sel)
		},
	}

	cmd.Flags().BoolVar(&allTests, "all", false, "show every test, not just the selected ones")
	return cmd
}
