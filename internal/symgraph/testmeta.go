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

	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// buildMetadata translates a fact's open metadata map into a Metadata
// value, applying rules 1, 4, and 5 from spec.md §4.2.
func buildMetadata(raw map[string]any, isTestDef bool) Metadata {
	m := Metadata{}

	if b, ok := raw["private"].(bool); ok {
		m.Private = b
	}
	if b, ok := raw["macro"].(bool); ok {
		m.Macro = b
	}
	if b, ok := raw["deprecated"].(bool); ok {
		m.Deprecated = b
	}

	if isTestDef {
		m.IsTest = true
	} else if b, ok := raw["is_test"].(bool); ok && b {
		m.IsTest = true
	}

	if b, ok := raw["integration"].(bool); ok && b {
		m.IsIntegration = true
	}

	if targets := extractTestTargets(raw); len(targets) > 0 {
		m.TestTargets = symbol.NewSet(targets...)
	}

	var extra map[string]any
	for k, v := range raw {
		switch k {
		case "private", "macro", "deprecated", "is_test", "integration",
			"test_targets", "test_target":
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	m.Extra = extra

	return m
}

// extractTestTargets implements spec.md §4.2 rule 5: the metadata map of a
// test may carry test_targets or test_target, whose value may be a single
// FQS string, a sequence of FQS strings, or a set of FQS strings.
// Absence (neither key present, or present with a value that parses to
// nothing) yields a nil slice — "absence is absence, not empty set".
func extractTestTargets(raw map[string]any) []symbol.Symbol {
	val, ok := raw["test_targets"]
	if !ok {
		val, ok = raw["test_target"]
	}
	if !ok {
		return nil
	}

	var out []symbol.Symbol
	appendParsed := func(s string) {
		if sym, err := symbol.Parse(s); err == nil {
			out = append(out, sym)
		}
	}

	switch v := val.(type) {
	case string:
		appendParsed(v)
	case []string:
		for _, s := range v {
			appendParsed(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendParsed(s)
			}
		}
	}
	return out
}

// isIntegrationNamespace reports whether a namespace's dot-segments match
// the *.integration.* pattern from spec.md §4.2 rule 4.
func isIntegrationNamespace(namespace string) bool {
	segments := strings.Split(namespace, ".")
	for _, seg := range segments {
		if seg == "integration" {
			return true
		}
	}
	return false
}

// isTestDefiningDefinition reports whether a VarDef's own is_test flag or
// defined_by symbol marks it as a test definition (rule 1).
func isTestDefiningDefinition(d facts.VarDef, testMacros symbol.Set) bool {
	if b, ok := d.Metadata["is_test"].(bool); ok && b {
		return true
	}
	if definedBy, ok := d.Metadata["defined_by"].(string); ok {
		if sym, err := symbol.Parse(definedBy); err == nil && testMacros.Has(sym) {
			return true
		}
	}
	return false
}
