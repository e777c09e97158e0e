// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch implements incremental updates to an existing symbol graph
// (spec.md §4.7, component C7): a cheap hash-only rehash of a subset of
// files, and a fuller analysis-snapshot-driven update that also removes
// orphaned structure for deleted files and re-merges changed-but-surviving
// files. Neither path re-analyzes the whole project.
package patch

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutianlabs/testscope/internal/hasher"
	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// Options configures the package's entry points, following the teacher's
// functional-options convention.
type Options struct {
	WorkerCount int
	Logger      *slog.Logger
	Tracer      trace.Tracer
}

// Option mutates Options.
type Option func(*Options)

// WithWorkerCount bounds the parallel fan-out used by the rehash step.
func WithWorkerCount(n int) Option { return func(o *Options) { o.WorkerCount = n } }

// WithLogger sets the structured logger used for progress messages.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithTracer sets the otel tracer used for span instrumentation.
func WithTracer(t trace.Tracer) Option { return func(o *Options) { o.Tracer = t } }

func defaultOptions() Options {
	return Options{Logger: slog.Default()}
}

// Rehash recomputes content hashes for the symbols defined in files, and
// returns a new Graph whose structure (Nodes/Edges/Files) is shared with g
// but whose ContentHashes is the disjoint union `H ⊎ H'` (spec.md §4.7
// steps 1-2).
//
// Description:
//
//	This never touches graph structure. It is only valid when no structural
//	change (new/removed definitions, new files, renames) has occurred in
//	files since g was built — the caller is responsible for routing
//	structural changes through Update instead (spec.md §4.7: "valid only
//	when structural changes ... have not occurred since the last analyze").
//
// Thread Safety: g is read-only; the returned Graph is a distinct value.
func Rehash(ctx context.Context, g *symgraph.Graph, files []string, opts ...Option) *symgraph.Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := startSpan(ctx, o.Tracer, "patch.Rehash")
	defer span.End()

	updated := hasher.RehashSubset(ctx, g, files, o.WorkerCount)

	out := &symgraph.Graph{
		Nodes:         g.Nodes,
		Edges:         g.Edges,
		Files:         g.Files,
		ContentHashes: make(map[symbol.Symbol]string, len(g.ContentHashes)),
	}
	for sym, h := range g.ContentHashes {
		out.ContentHashes[sym] = h
	}
	for sym, h := range updated {
		out.ContentHashes[sym] = h
	}

	span.SetAttributes(attribute.Int("patch.files_rehashed", len(files)))
	o.Logger.Debug("rehash complete", "files", len(files), "symbols_updated", len(updated))
	return out
}

func startSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, spanEnder) {
	if tracer == nil {
		return ctx, noopSpan{}
	}
	c, span := tracer.Start(ctx, name)
	return c, span
}

// spanEnder is the minimal surface patch.go needs from an otel span; both a
// real trace.Span and noopSpan satisfy it.
type spanEnder interface {
	End(...trace.SpanEndOption)
	SetAttributes(...attribute.KeyValue)
}

type noopSpan struct{}

func (noopSpan) End(...trace.SpanEndOption)            {}
func (noopSpan) SetAttributes(...attribute.KeyValue)   {}
