// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import "strings"

// Filter retains only facts whose dialect tag is the primary dialect (or
// absent) and whose file does not carry the excluded secondary dialect's
// file extension. Applied uniformly to definitions, usages, and namespaces
// (spec.md §4.1).
//
// Description:
//
//	Never errors — a fact that fails the filter is silently dropped, per
//	spec.md §4.1's "Fails by dropping the fact silently — never errors."
//
// Inputs:
//
//	f - The unfiltered facts. Must not be nil.
//	cfg - PrimaryDialect and ExcludedDialectSuffix (e.g. ".cljs" to exclude
//	      ClojureScript files when the primary dialect is "clj").
//
// Outputs:
//
//	*Facts - A new Facts value containing only the retained entries. Never
//	         nil, even if every input fact is dropped.
func Filter(f *Facts, cfg AnalyzerConfig) *Facts {
	if f == nil {
		return &Facts{}
	}

	out := &Facts{
		Definitions: make([]VarDef, 0, len(f.Definitions)),
		Usages:      make([]Usage, 0, len(f.Usages)),
		Namespaces:  make([]NamespaceDef, 0, len(f.Namespaces)),
	}

	for _, d := range f.Definitions {
		if retain(d.Dialect, d.File, cfg) {
			out.Definitions = append(out.Definitions, d)
		}
	}
	for _, u := range f.Usages {
		if retain(u.Dialect, u.File, cfg) {
			out.Usages = append(out.Usages, u)
		}
	}
	for _, n := range f.Namespaces {
		if retain(n.Dialect, n.File, cfg) {
			out.Namespaces = append(out.Namespaces, n)
		}
	}
	return out
}

// retain implements the single-dialect filter rule: a fact is kept if its
// dialect tag matches the primary dialect or is absent, AND its file does
// not end with the excluded secondary dialect's suffix.
func retain(d Dialect, file string, cfg AnalyzerConfig) bool {
	if d != "" && cfg.PrimaryDialect != "" && d != cfg.PrimaryDialect {
		return false
	}
	if cfg.ExcludedDialectSuffix != "" && strings.HasSuffix(file, cfg.ExcludedDialectSuffix) {
		return false
	}
	return true
}
