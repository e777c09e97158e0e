// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires up the OpenTelemetry tracer provider every
// component's span instrumentation (symgraph.Build, patch.Rehash,
// patch.Update) feeds into. Components never call
// otel.SetTracerProvider themselves — only internal/cliapp does, through
// this package, so a library consumer of these internal/ packages can
// supply its own provider instead.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this binary's spans to whatever backend consumes
// them.
const ServiceName = "testscope"

// Options configures Setup.
type Options struct {
	// Enabled turns tracing on. When false, Setup installs the global
	// no-op tracer provider and Shutdown is a no-op.
	Enabled bool

	// PrettyPrint renders spans as human-readable text instead of JSON —
	// useful for `testscope --trace` on a terminal.
	PrettyPrint bool
}

// Setup installs a tracer provider as the OpenTelemetry global and returns
// a shutdown function the caller must invoke before exit to flush pending
// spans.
//
// Description:
//
//	The exporter is stdouttrace, matching the teacher's dependency on
//	go.opentelemetry.io/otel/exporters/stdout/stdouttrace — this repo has
//	no network span collector of its own, so spans land on stdout in a form
//	suitable for `testscope --trace | jq` or direct reading during
//	development.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	if !opts.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exporterOpts := []stdouttrace.Option{}
	if opts.PrettyPrint {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Tracer returns a named tracer from the currently installed global
// provider, for components that don't take one via functional option.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
