// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cliapp builds the cobra command tree for the testscope binary:
// analyze, select, mark-verified, clear, status, watch, why, callers,
// callees, tui, and serve (spec.md §6 CLI surface). Every command is a
// thin flag-parsing shell around internal/engine. None of them call
// internal/hasher or internal/depgraph directly; they use internal/cache,
// internal/symgraph, and internal/selector only to open the engine, read
// the graph it loads, and print its results.
package cliapp

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/config"
	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/symgraph"
	"github.com/aleutianlabs/testscope/internal/telemetry"
)

// rootFlags holds the persistent flag values shared by every subcommand.
type rootFlags struct {
	projectRoot string
	traceOutput bool
	logLevel    string
}

// NewRootCommand builds the full testscope command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "testscope",
		Short: "Selective test runner: analyze, select affected tests, track verified coverage.",
		Long: "testscope consumes analyzer output for a Lisp-family codebase and decides which\n" +
			"tests are affected by what changed since the last verified run, trading a small\n" +
			"risk of over-selection for never re-running the whole suite.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.projectRoot, "project-root", ".", "project root directory")
	root.PersistentFlags().BoolVar(&flags.traceOutput, "trace", false, "emit OpenTelemetry spans to stdout")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newAnalyzeCommand(flags),
		newSelectCommand(flags),
		newMarkVerifiedCommand(flags),
		newClearCommand(flags),
		newStatusCommand(flags),
		newWatchCommand(flags),
		newWhyCommand(flags),
		newCallersCommand(flags),
		newCalleesCommand(flags),
		newTUICommand(flags),
		newServeCommand(flags),
	)

	return root
}

// newLogger builds the shared structured logger at the requested level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openEngine opens the cache and config for flags.projectRoot and returns
// a ready-to-use Engine plus the resolved config.
func openEngine(flags *rootFlags) (*engine.Engine, config.Config, error) {
	logger := newLogger(flags.logLevel)

	cfg, err := config.Load(flags.projectRoot)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	cacheOpts := cache.Options{Logger: logger}
	if cfg.CacheDir != "" {
		cacheOpts.Dir = cfg.CacheDir
	}
	c, err := cache.Open(flags.projectRoot, cacheOpts)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening cache: %w", err)
	}

	var builderOpts []symgraph.BuilderOption
	builderOpts = append(builderOpts, symgraph.WithLogger(logger))
	if len(cfg.TestMacros) > 0 {
		macros := symgraph.DefaultTestMacros()
		for _, m := range cfg.TestMacros {
			if sym, err := parseMacroSymbol(m); err == nil {
				macros.Add(sym)
			}
		}
		builderOpts = append(builderOpts, symgraph.WithTestMacros(macros))
	}
	builder := symgraph.NewBuilder(builderOpts...)

	e := engine.New(flags.projectRoot, c, builder, cfg.WorkerCount, logger)
	return e, cfg, nil
}

// setupTracing installs the tracer provider requested by --trace, and
// returns a shutdown func the caller must defer.
func setupTracing(cmd *cobra.Command, flags *rootFlags) (func(), error) {
	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Options{Enabled: flags.traceOutput, PrettyPrint: true})
	if err != nil {
		return nil, err
	}
	return func() { _ = shutdown(cmd.Context()) }, nil
}
