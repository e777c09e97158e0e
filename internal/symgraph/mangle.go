// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symgraph

import (
	"strings"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

// allowedMangleChars mirrors spec.md §6's negated character class
// `[^A-Za-z0-9_\-!#$%&*<>:?|]` — everything NOT in this set is replaced
// with "-".
func allowedMangleChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '_', '-', '!', '#', '$', '%', '&', '*', '<', '>', ':', '?', '|':
		return true
	}
	return false
}

// MangleTestName applies the stable test-name mangling rule (spec.md §6):
// given namespace N and literal test name S, the synthesized FQS name is
// "__" + replace(S, /[^A-Za-z0-9_\-!#$%&*<>:?|]/, "-") + "__".
//
// Description:
//
//	This rule MUST stay byte-for-byte stable across versions — changing it
//	silently invalidates every verified baseline already on disk, since
//	baselines key on the synthesized FQS string.
func MangleTestName(namespace, testName string) symbol.Symbol {
	var b strings.Builder
	b.WriteString("__")
	for _, r := range testName {
		if allowedMangleChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	b.WriteString("__")
	return symbol.New(namespace, b.String())
}
