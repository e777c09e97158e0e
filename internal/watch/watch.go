// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch drives a filesystem-triggered re-analyze/re-select loop
// (spec.md §6 "watch"). testscope never runs the external static analyzer
// itself (spec.md §1 Non-goals), so a watch cycle reloads the same facts
// document the last "analyze" invocation used from disk and re-runs the
// analyze-then-select pipeline through internal/engine whenever fsnotify
// reports a change under the watched paths.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/selector"
)

// Options configures a watch loop.
type Options struct {
	// Paths are the directories to watch recursively.
	Paths []string

	// FactsPath is the facts document reloaded from disk on every cycle.
	FactsPath string

	// AnalyzerConfig is passed through to Engine.Analyze on every cycle.
	AnalyzerConfig facts.AnalyzerConfig

	// Debounce coalesces a burst of fsnotify events into a single cycle.
	// Zero selects a 300ms default, matching the teacher's preference for
	// a short, named debounce window over an unbuffered event channel
	// (services/trace/agent/providers/egress/batcher.go).
	Debounce time.Duration

	// Serialize, if non-nil, is held for the duration of each cycle's
	// Analyze+Select call so a long-running watch loop never races a
	// concurrent request against the same Engine (spec.md §5's single-writer
	// assumption) — internal/api shares one RWMutex between its Handlers and
	// its WatchStream for exactly this reason. The plain CLI "watch" command
	// leaves this nil since nothing else touches the Engine concurrently.
	Serialize *sync.RWMutex

	Logger *slog.Logger
}

// Cycle is the observable result of one watch iteration, handed to the
// caller's callback so a CLI or TUI can render it without watch itself
// knowing how to print anything.
type Cycle struct {
	Err       error
	Selection *selector.Selection
}

// Run watches opts.Paths and invokes onCycle once per debounced batch of
// filesystem events, until ctx is canceled. The first cycle always runs
// immediately, before any filesystem event, so callers see an initial
// selection without having to touch a file.
func Run(ctx context.Context, e *engine.Engine, opts Options, onCycle func(Cycle)) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addRecursive(w, opts.Paths); err != nil {
		return err
	}

	runCycle := func() {
		if opts.Serialize != nil {
			opts.Serialize.Lock()
			defer opts.Serialize.Unlock()
		}

		f, err := loadFacts(opts.FactsPath)
		if err != nil {
			onCycle(Cycle{Err: err})
			return
		}
		if _, err := e.Analyze(ctx, f, opts.AnalyzerConfig, opts.Paths); err != nil {
			onCycle(Cycle{Err: err})
			return
		}
		sel, _, err := e.Select(ctx, false)
		if err != nil {
			onCycle(Cycle{Err: err})
			return
		}
		onCycle(Cycle{Selection: sel})
	}

	runCycle()

	var timer *time.Timer
	var timerC <-chan time.Time
	resetDebounce := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
		} else {
			timer.Reset(debounce)
		}
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			logger.Debug("watch event", "path", ev.Name, "op", ev.Op.String())
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			resetDebounce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timerC:
			timerC = nil
			runCycle()
		}
	}
}

// addRecursive walks every root and registers every directory found with
// w, since fsnotify watches a single directory non-recursively.
func addRecursive(w *fsnotify.Watcher, roots []string) error {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// loadFacts reads and decodes the facts document at path.
func loadFacts(path string) (*facts.Facts, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &facts.AnalyzerError{Detail: err}
	}
	defer file.Close()
	return facts.Decode(file)
}
