// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbol

import "github.com/go-openapi/strfmt"

// FormatName is the strfmt format name registered for "ns/name" strings, so
// any OpenAPI-style schema or gin request validator in internal/api can
// reference the same FQS grammar this package already parses, instead of
// duplicating the rule as a second regex.
const FormatName = "fqs"

func init() {
	strfmt.Default.Add(FormatName, &Symbol{}, func(s string) bool {
		_, err := Parse(s)
		return err == nil
	})
}
