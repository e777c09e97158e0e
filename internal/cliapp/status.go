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
)

func newStatusCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report cache existence, sizes, and freshness.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			st := e.Status()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "analysis snapshot: exists=%t size=%s modified=%s\n",
				st.Analysis.Exists, st.Analysis.HumanSize(), formatTime(st.Analysis))
			fmt.Fprintf(out, "verified baseline:  exists=%t size=%s modified=%s\n",
				st.Baseline.Exists, st.Baseline.HumanSize(), formatTime(st.Baseline))
			return nil
		},
	}
	return cmd
}
