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
	"time"

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/metrics"
	"github.com/aleutianlabs/testscope/internal/watch"
)

func newWatchCommand(flags *rootFlags) *cobra.Command {
	var factsPath string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-select affected tests every time a watched file changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			stopTracing, err := setupTracing(cmd, flags)
			if err != nil {
				return err
			}
			defer stopTracing()

			out := cmd.OutOrStdout()
			opts := watch.Options{
				Paths:          cfg.EffectivePaths(flags.projectRoot),
				FactsPath:      factsPath,
				AnalyzerConfig: cfg.AnalyzerConfig(),
				Debounce:       debounce,
			}

			return watch.Run(cmd.Context(), e, opts, func(c watch.Cycle) {
				if c.Err != nil {
					fmt.Fprintf(out, "watch cycle failed: %v\n", c.Err)
					return
				}
				metrics.RecordSelection(c.Selection)
				fmt.Fprintf(out, "--- %s ---\n", time.Now().Format(time.RFC3339))
				printSelection(out, c.Selection)
			})
		},
	}

	cmd.Flags().StringVar(&factsPath, "facts", "facts.json", "facts document reloaded on every cycle")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "how long to wait after a burst of changes before re-analyzing")
	return cmd
}
