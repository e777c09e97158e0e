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
	"bufio"
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// Default builder configuration values.
const (
	// DefaultWorkerCount is a zero worker-count hint. DefaultBuilderOptions
	// does not use it (it sets runtime.NumCPU()), and Build itself is
	// single-pass and never reads the worker count.
	DefaultWorkerCount = 0
)

// ProgressPhase indicates which phase of building is in progress.
type ProgressPhase int

const (
	ProgressPhaseNodes ProgressPhase = iota
	ProgressPhaseMacroTests
	ProgressPhaseEdges
	ProgressPhaseFinalizing
)

func (p ProgressPhase) String() string {
	switch p {
	case ProgressPhaseNodes:
		return "nodes"
	case ProgressPhaseMacroTests:
		return "macro_tests"
	case ProgressPhaseEdges:
		return "edges"
	case ProgressPhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// BuildProgress reports incremental progress through Build.
type BuildProgress struct {
	Phase          ProgressPhase
	FilesTotal     int
	FilesProcessed int
	NodesCreated   int
	EdgesCreated   int
}

// ProgressFunc is a callback for build progress updates.
type ProgressFunc func(progress BuildProgress)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// TestMacros is the configured set of test-declaring macro FQS values
	// (spec.md §4.2 "Inputs"). Defaults include the generic deftest plus
	// at least one macro-based specification form (see DefaultTestMacros).
	TestMacros symbol.Set

	// WorkerCount is unused by Build itself today (single-pass over
	// in-memory facts) but is threaded through so callers can size a
	// shared worker pool consistently with internal/hasher's bulk
	// interface, which does parallelize. Default: runtime.NumCPU().
	WorkerCount int

	// ProgressCallback is called periodically with build progress. May be
	// nil.
	ProgressCallback ProgressFunc

	// Logger receives per-file failure diagnostics (spec.md §4.2
	// "Failure"). Defaults to slog.Default() if nil.
	Logger *slog.Logger

	// Tracer wraps Build in an OpenTelemetry span when non-nil.
	Tracer trace.Tracer
}

// DefaultTestMacros returns the default test-declaring macro set: the
// generic clojure.test/deftest plus test.check's property-based
// clojure.test.check.clojure-test/defspec, covering the "at least one
// macro-based specification form" default from spec.md §4.2.
func DefaultTestMacros() symbol.Set {
	return symbol.NewSet(
		symbol.New("clojure.test", "deftest"),
		symbol.New("clojure.test.check.clojure-test", "defspec"),
	)
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		TestMacros:  DefaultTestMacros(),
		WorkerCount: runtime.NumCPU(),
		Logger:      slog.Default(),
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithTestMacros overrides the configured test-declaring macro set.
func WithTestMacros(macros symbol.Set) BuilderOption {
	return func(o *BuilderOptions) { o.TestMacros = macros }
}

// WithWorkerCount sets the worker count hint.
func WithWorkerCount(n int) BuilderOption {
	return func(o *BuilderOptions) { o.WorkerCount = n }
}

// WithProgressCallback installs a progress callback.
func WithProgressCallback(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) { o.ProgressCallback = fn }
}

// WithLogger installs a structured logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) { o.Logger = logger }
}

// WithTracer installs an OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) BuilderOption {
	return func(o *BuilderOptions) { o.Tracer = tracer }
}

// Builder constructs a Graph from filtered facts (spec.md §4.2, C2).
type Builder struct {
	opts BuilderOptions
}

// NewBuilder constructs a Builder, applying opts over DefaultBuilderOptions.
func NewBuilder(opts ...BuilderOption) *Builder {
	o := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TestMacros == nil {
		o.TestMacros = DefaultTestMacros()
	}
	return &Builder{opts: o}
}

// macroTestRange is a synthesized test's line extent within one file, used
// to resolve edge.from for usages inside the macro call's body (rule 6).
type macroTestRange struct {
	sym       symbol.Symbol
	startLine int
	endLine   int
}

// Build constructs a Graph from filtered facts, applying rules 1-7 of
// spec.md §4.2 in order: variable nodes, namespace nodes, macro-test
// nodes, edges, then the files index.
//
// Description:
//
//	Per-file failures while scanning for macro-test line ranges are
//	isolated: that file's macro tests are omitted and a warning is logged,
//	but the rest of the build proceeds (spec.md §4.2 "Failure"). Build
//	never returns a non-nil error; a nil Facts input is treated as empty
//	facts.
//
// Thread Safety: Build is not safe for concurrent reuse of the same
// Builder across overlapping calls that share a ProgressCallback state,
// but a Builder has no internal mutable state between calls otherwise.
func (b *Builder) Build(ctx context.Context, f *facts.Facts) (*Graph, error) {
	if f == nil {
		f = &facts.Facts{}
	}

	if b.opts.Tracer != nil {
		var span trace.Span
		_, span = b.opts.Tracer.Start(ctx, "symgraph.Build")
		defer span.End()
		defer func() {
			span.SetAttributes(
				attribute.Int("symgraph.definitions", len(f.Definitions)),
				attribute.Int("symgraph.usages", len(f.Usages)),
				attribute.Int("symgraph.namespaces", len(f.Namespaces)),
			)
		}()
	}

	g := NewGraph()
	progress := BuildProgress{FilesTotal: len(f.Namespaces)}

	// Rule 1: variable nodes.
	progress.Phase = ProgressPhaseNodes
	for _, d := range f.Definitions {
		sym := symbol.New(d.Namespace, d.Name)
		meta := buildMetadata(d.Metadata, isTestDefiningDefinition(d, b.opts.TestMacros))
		if isIntegrationNamespace(d.Namespace) {
			meta.IsIntegration = true
		}
		// A VarDef whose own is_test/defined_by metadata marks it as a test
		// (spec.md §4.2 rule 1) is a test node, not a plain var: Graph.TestNodes
		// (the sole feed into selector.Select's classification) filters on Kind,
		// so leaving Kind at KindVar here would make such a test unreachable
		// from selection entirely.
		kind := KindVar
		if meta.IsTest {
			kind = KindTest
		}
		node := &Node{
			Symbol:   sym,
			Kind:     kind,
			File:     d.File,
			Line:     d.StartLine,
			EndLine:  d.EndLine,
			Metadata: meta,
		}
		if definedBy, ok := d.Metadata["defined_by"].(string); ok {
			if parsed, err := symbol.Parse(definedBy); err == nil {
				node.DefinedBy = parsed
			}
		}
		g.Nodes[sym] = node
		b.reportProgress(&progress)
	}

	// Rule 2: namespace nodes.
	for _, n := range f.Namespaces {
		sym := symbol.New(n.Namespace, n.Namespace)
		g.Nodes[sym] = &Node{
			Symbol:  sym,
			Kind:    KindNamespace,
			File:    n.File,
			Line:    n.StartLine,
			EndLine: n.EndLine,
			Metadata: Metadata{
				IsIntegration: isIntegrationNamespace(n.Namespace),
			},
		}
		progress.FilesProcessed++
		b.reportProgress(&progress)
	}

	// Rule 3: macro-test nodes, synthesized from usages of a configured
	// test-declaring macro. Per-file scan failures are isolated.
	progress.Phase = ProgressPhaseMacroTests
	rangesByFile := make(map[string][]macroTestRange)
	for _, u := range f.Usages {
		macroSym := symbol.New(u.ToNamespace, u.ToName)
		if !b.opts.TestMacros.Has(macroSym) {
			continue
		}
		testName, endLine, err := scanMacroTestCall(u.File, u.Line)
		if err != nil {
			b.opts.Logger.Warn("symgraph: macro test scan failed, omitting file's macro tests",
				"file", u.File, "line", u.Line, "error", err)
			continue
		}
		testSym := MangleTestName(u.Namespace, testName)
		node := &Node{
			Symbol:    testSym,
			Kind:      KindTest,
			File:      u.File,
			Line:      u.Line,
			EndLine:   endLine,
			DefinedBy: macroSym,
			Metadata: Metadata{
				IsTest:        true,
				TestName:      testName,
				IsIntegration: isIntegrationNamespace(u.Namespace),
			},
		}
		g.Nodes[testSym] = node
		rangesByFile[u.File] = append(rangesByFile[u.File], macroTestRange{
			sym:       testSym,
			startLine: u.Line,
			endLine:   endLine,
		})
		progress.NodesCreated++
		b.reportProgress(&progress)
	}

	// Rule 6: edge emission.
	progress.Phase = ProgressPhaseEdges
	for _, u := range f.Usages {
		from, ok := resolveFrom(u, rangesByFile[u.File])
		if !ok {
			continue
		}
		to := symbol.New(u.ToNamespace, u.ToName)
		if from.IsZero() || to.IsZero() {
			continue
		}
		g.Edges = append(g.Edges, Edge{From: from, To: to, File: u.File, Line: u.Line})
		progress.EdgesCreated++
		b.reportProgress(&progress)
	}
	sortEdgesDeterministic(g.Edges)

	// Rule 7: files map, built after all nodes exist.
	progress.Phase = ProgressPhaseFinalizing
	for _, sym := range g.SortedNodeSymbols() {
		n := g.Nodes[sym]
		rec, ok := g.Files[n.File]
		if !ok {
			rec = &FileRecord{}
			g.Files[n.File] = rec
		}
		rec.Symbols = append(rec.Symbols, sym)
	}
	b.reportProgress(&progress)

	return g, nil
}

func (b *Builder) reportProgress(p *BuildProgress) {
	if b.opts.ProgressCallback != nil {
		b.opts.ProgressCallback(*p)
	}
}

// resolveFrom implements rule 6's three-way fallback for an edge's source
// endpoint: enclosing function, else covering macro-test range, else the
// usage's own namespace.
func resolveFrom(u facts.Usage, ranges []macroTestRange) (symbol.Symbol, bool) {
	if u.EnclosingFn != "" {
		return symbol.New(u.Namespace, u.EnclosingFn), true
	}
	for _, r := range ranges {
		if u.Line >= r.startLine && u.Line <= r.endLine {
			return r.sym, true
		}
	}
	if u.Namespace != "" {
		return symbol.New(u.Namespace, u.Namespace), true
	}
	return symbol.Symbol{}, false
}

// sortEdgesDeterministic orders edges by (file, line, from, to) so that
// iteration order over the input facts never affects the emitted edge
// sequence (spec.md §4.2 "Determinism").
func sortEdgesDeterministic(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.From != b.From {
			return symbol.Less(a.From, b.From)
		}
		return symbol.Less(a.To, b.To)
	})
}

// scanMacroTestCall reads file and extracts the string-literal test name
// from the macro call starting at line startLine, returning the name and
// the call's closing line. This is a line-oriented heuristic scan, not a
// full reader: it looks for the first quoted string literal on or after
// startLine and the matching close-paren depth to find the call's end.
func scanMacroTestCall(file string, startLine int) (name string, endLine int, err error) {
	f, err := os.Open(file)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	depth := 0
	line := 0
	started := false
	for scanner.Scan() {
		line++
		if line < startLine {
			continue
		}
		text := scanner.Text()
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '(':
				depth++
				started = true
			case ')':
				depth--
			case '"':
				if name == "" {
					lit, consumed := readStringLiteral(text[i+1:])
					name = lit
					i += consumed + 1
				}
			}
		}
		if started && depth <= 0 {
			return name, line, scanner.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, err
	}
	if name == "" {
		return "", 0, errNoTestNameLiteral(file, startLine)
	}
	return name, line, nil
}

// readStringLiteral consumes s up to and including the closing unescaped
// quote, returning the literal's content and the number of bytes consumed
// from s (not counting the opening quote, which the caller already
// consumed).
func readStringLiteral(s string) (lit string, consumed int) {
	var b []byte
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b = append(b, s[i], s[i+1])
			i += 2
			continue
		}
		if c == '"' {
			return string(b), i
		}
		b = append(b, c)
		i++
	}
	return string(b), i
}

type macroTestScanError struct {
	file string
	line int
}

func (e *macroTestScanError) Error() string {
	return "symgraph: no string literal test name found for macro call at " + e.file + ":" + strconv.Itoa(e.line)
}

func errNoTestNameLiteral(file string, line int) error {
	return &macroTestScanError{file: file, line: line}
}
