// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command testscope is a selective test runner for Lisp-family codebases:
// it consumes static-analyzer output, builds a symbol-usage graph, and
// decides which tests are affected by what changed since the last verified
// run.
//
// Usage:
//
//	testscope analyze --facts facts.json
//	testscope select
//	testscope mark-verified --all
//	testscope watch --facts facts.json
//	testscope serve --addr :8088
package main

import (
	"fmt"
	"os"

	"github.com/aleutianlabs/testscope/internal/cliapp"
)

func main() {
	if err := cliapp.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
