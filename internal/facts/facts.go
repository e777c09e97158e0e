// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package facts holds the typed representation of analyzer output: variable
// definitions, usages, and namespace definitions, each carrying a source
// dialect tag, file/line extents, and an open metadata map.
//
// The analyzer that produces these facts is an external collaborator
// (spec.md §1, §6) — this package never parses source itself. It does carry
// the single-dialect filter rule (spec.md §4.1), which is squarely a fact
// model concern, and a JSON codec so an external analyzer can hand a Facts
// value to the CLI as a file.
package facts

import (
	"context"
	"encoding/json"
	"io"
)

// Dialect tags the source dialect a fact was extracted from (e.g. "clj",
// "cljs"). The empty string means "dialect unknown / not applicable" and is
// always retained by the filter rule.
type Dialect string

// VarDef is a single top-level variable/function/test definition.
type VarDef struct {
	Namespace   string         `json:"namespace"`
	Name        string         `json:"name"`
	File        string         `json:"file"`
	StartLine   int            `json:"start_line"`
	EndLine     int            `json:"end_line"`
	Dialect     Dialect        `json:"dialect,omitempty"`
	EnclosingFn string         `json:"enclosing_fn,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Usage is a single use of one symbol from within another (or from a
// namespace's top level).
type Usage struct {
	// EnclosingFn is the name of the function the usage appears inside, if
	// any. Empty means the usage is top-level in its namespace.
	EnclosingFn string `json:"enclosing_fn,omitempty"`

	// Namespace is the declaring namespace of the usage site, used to
	// resolve `from` when EnclosingFn is empty (spec.md §4.2 rule 6).
	Namespace string `json:"namespace"`

	// ToNamespace/ToName identify the used symbol.
	ToNamespace string `json:"to_namespace"`
	ToName      string `json:"to_name"`

	File    string  `json:"file"`
	Line    int     `json:"line"`
	Dialect Dialect `json:"dialect,omitempty"`
}

// NamespaceDef is a single namespace declaration.
type NamespaceDef struct {
	Namespace string  `json:"namespace"`
	File      string  `json:"file"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Dialect   Dialect `json:"dialect,omitempty"`
}

// Facts is the full set of analyzer output for one analyze run.
type Facts struct {
	Definitions []VarDef       `json:"definitions"`
	Usages      []Usage        `json:"usages"`
	Namespaces  []NamespaceDef `json:"namespaces"`
}

// AnalyzerConfig carries the subset of configuration the analyzer contract
// (spec.md §6) needs to know about: which dialect to treat as primary and
// which file suffix to exclude. The paths to scan are passed separately.
type AnalyzerConfig struct {
	PrimaryDialect        Dialect
	ExcludedDialectSuffix string
}

// Analyzer is the external collaborator contract from spec.md §6: "an
// object with three lazy sequences: definitions, usages, namespaces."
//
// Description:
//
//	testscope's core never implements this — the static analyzer is
//	explicitly out of scope (spec.md §1). This interface exists so the
//	builder and CLI can depend on an abstraction instead of a concrete
//	analyzer, and so tests can supply a fixture.
type Analyzer interface {
	Analyze(ctx context.Context, paths []string, cfg AnalyzerConfig) (*Facts, error)
}

// AnalyzerError wraps a failed analyzer invocation (spec.md §7 kind 5:
// "Analyzer-failed"). It is always propagated to the caller, never
// recovered locally.
type AnalyzerError struct {
	// Detail is the analyzer's own error detail, preserved verbatim so the
	// user-visible failure (spec.md §7) carries the original context.
	Detail error
}

func (e *AnalyzerError) Error() string {
	return "analyzer failed: " + e.Detail.Error()
}

func (e *AnalyzerError) Unwrap() error { return e.Detail }

// Encode writes f as JSON to w.
func (f *Facts) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// Decode reads a Facts value as JSON from r.
func Decode(r io.Reader) (*Facts, error) {
	var f Facts
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}
