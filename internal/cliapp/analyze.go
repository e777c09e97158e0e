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

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/metrics"
)

func newAnalyzeCommand(flags *rootFlags) *cobra.Command {
	var factsPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Full reanalyze: overwrite the analysis snapshot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			shutdown, err := setupTracing(cmd, flags)
			if err != nil {
				return err
			}
			defer shutdown()

			e, cfg, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			var f *facts.Facts
			if factsPath == "-" || factsPath == "" {
				f, err = facts.Decode(os.Stdin)
			} else {
				file, openErr := os.Open(factsPath)
				if openErr != nil {
					return fmt.Errorf("opening facts file: %w", openErr)
				}
				defer file.Close()
				f, err = facts.Decode(file)
			}
			if err != nil {
				return &facts.AnalyzerError{Detail: err}
			}

			paths := cfg.EffectivePaths(flags.projectRoot)
			result, err := e.Analyze(cmd.Context(), f, cfg.AnalyzerConfig(), paths)
			if err != nil {
				return err
			}

			metrics.RecordAnalyze(len(result.Graph.Nodes))
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d symbols, %d edges across %d file(s)\n",
				len(result.Graph.Nodes), len(result.Graph.Edges), len(paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&factsPath, "facts", "-", "path to analyzer facts JSON (- for stdin)")
	return cmd
}
