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
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newClearCommand(flags *rootFlags) *cobra.Command {
	var all bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the analysis snapshot, and optionally the baseline too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && !yes && isatty.IsTerminal(os.Stdout.Fd()) {
				confirmed, err := confirmClearBaseline()
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			if err := e.Clear(all); err != nil {
				return err
			}

			if all {
				fmt.Fprintln(cmd.OutOrStdout(), "cleared analysis snapshot and verified baseline")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "cleared analysis snapshot")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also clear the verified baseline")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt when clearing the baseline")
	return cmd
}

// confirmClearBaseline prompts before a destructive baseline wipe — clearing
// the baseline discards every verified hash, forcing the next select back to
// the empty-baseline fast path (select everything).
func confirmClearBaseline() (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title("Clear the verified baseline?").
		Description("Every previously verified test hash will be discarded; the next select will select everything.").
		Affirmative("Clear it").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
