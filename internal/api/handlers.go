// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/metrics"
	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

// Handlers wraps an Engine with gin handler methods, the teacher's pattern
// of a single receiver struct per service (services/trace/handlers_debug.go
// "func (h *Handlers) HandleX(c *gin.Context)"). AnalyzerConfig and Paths
// are resolved once from testscope.yaml when the server starts, the same
// configuration every "analyze" CLI invocation would use.
//
// mu serializes every request against the Engine: the core assumes a single
// writer per project root (spec.md §5), so concurrent HTTP requests must be
// funneled the same way a single CLI invocation would be. Analyze/
// MarkVerified/Clear take the write lock; Select/Status/callers/callees take
// the read lock since they only load already-persisted snapshots. The same
// *sync.RWMutex is shared with WatchStream (see NewRouter) so a background
// watch cycle and an HTTP request never race the same Engine.
type Handlers struct {
	Engine         *engine.Engine
	AnalyzerConfig facts.AnalyzerConfig
	Paths          []string
	Logger         *slog.Logger

	mu *sync.RWMutex
}

// NewHandlers builds a Handlers bound to e, serializing its requests on mu.
func NewHandlers(e *engine.Engine, cfg facts.AnalyzerConfig, paths []string, logger *slog.Logger, mu *sync.RWMutex) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Engine: e, AnalyzerConfig: cfg, Paths: paths, Logger: logger, mu: mu}
}

// HandleAnalyze handles POST /v1/testscope/analyze.
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	paths := req.Paths
	if len(paths) == 0 {
		paths = h.Paths
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.Engine.Analyze(c.Request.Context(), req.Facts, h.AnalyzerConfig, paths)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "ANALYZE_FAILED"})
		return
	}

	metrics.RecordAnalyze(len(result.Graph.Nodes))
	c.JSON(http.StatusOK, gin.H{"symbols": len(result.Graph.Nodes), "edges": len(result.Graph.Edges)})
}

// HandleSelect handles GET /v1/testscope/select.
func (h *Handlers) HandleSelect(c *gin.Context) {
	allTests := c.Query("all") == "true"

	h.mu.RLock()
	defer h.mu.RUnlock()

	sel, _, err := h.Engine.Select(c.Request.Context(), allTests)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "SELECT_FAILED"})
		return
	}

	metrics.RecordSelection(sel)
	c.JSON(http.StatusOK, toSelectResponse(sel))
}

// HandleMarkVerified handles POST /v1/testscope/mark-verified.
func (h *Handlers) HandleMarkVerified(c *gin.Context) {
	var req MarkVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sel, g, err := h.Engine.Select(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "SELECT_FAILED"})
		return
	}

	if req.All {
		if err := h.Engine.MarkAllVerified(g); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "MARK_VERIFIED_FAILED"})
			return
		}
		c.JSON(http.StatusOK, MarkVerifiedResponse{Merged: len(g.ContentHashes)})
		return
	}

	run := selector.AllTestsRun()
	if len(req.Tests) > 0 {
		syms := make([]symbol.Symbol, 0, len(req.Tests))
		for _, t := range req.Tests {
			sym, err := symbol.Parse(t)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_TEST_SYMBOL"})
				return
			}
			syms = append(syms, sym)
		}
		run = selector.ExplicitTestsRun(syms)
	}

	result, err := h.Engine.MarkVerified(sel, run)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "MARK_VERIFIED_FAILED"})
		return
	}
	c.JSON(http.StatusOK, MarkVerifiedResponse{Merged: len(result.Merged), Skipped: len(result.Skipped)})
}

// HandleStatus handles GET /v1/testscope/status.
func (h *Handlers) HandleStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := h.Engine.Status()
	c.JSON(http.StatusOK, StatusResponse{
		Analysis: toEntryStatusJSON(st.Analysis),
		Baseline: toEntryStatusJSON(st.Baseline),
	})
}

// HandleClear handles POST /v1/testscope/clear.
func (h *Handlers) HandleClear(c *gin.Context) {
	all := c.Query("all") == "true"

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Engine.Clear(all); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "CLEAR_FAILED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true, "all": all})
}

// HandleCallers handles GET /v1/testscope/callers.
func (h *Handlers) HandleCallers(c *gin.Context) {
	h.direct(c, func(edge edgeView) (key, hit symbol.Symbol) { return edge.to, edge.from })
}

// HandleCallees handles GET /v1/testscope/callees.
func (h *Handlers) HandleCallees(c *gin.Context) {
	h.direct(c, func(edge edgeView) (key, hit symbol.Symbol) { return edge.from, edge.to })
}

type edgeView struct{ from, to symbol.Symbol }

// direct resolves the "symbol" query parameter and walks the graph's edges,
// calling match for each edge to decide which endpoint is the query key and
// which is the hit to collect — shared by HandleCallers and HandleCallees
// since both are a single direct-edge scan in opposite directions.
func (h *Handlers) direct(c *gin.Context, match func(edgeView) (key, hit symbol.Symbol)) {
	name := c.Query("symbol")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "symbol parameter is required", Code: "MISSING_PARAMETER"})
		return
	}
	target, err := symbol.Parse(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_SYMBOL"})
		return
	}

	h.mu.RLock()
	g, _, err := h.Engine.LoadGraph()
	h.mu.RUnlock()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "LOAD_GRAPH_FAILED"})
		return
	}

	results := symbol.NewSet()
	for _, e := range g.Edges {
		key, hit := match(edgeView{from: e.From, to: e.To})
		if key == target {
			results.Add(hit)
		}
	}

	out := make([]string, 0, len(results))
	for _, s := range results.Slice() {
		out = append(out, s.String())
	}
	c.JSON(http.StatusOK, gin.H{"symbol": target.String(), "results": out})
}

func toSelectResponse(sel *selector.Selection) SelectResponse {
	out := SelectResponse{
		Tests:          make([]SelectedTestJSON, len(sel.Tests)),
		ChangedSymbols: sel.Stats.ChangedSymbols,
		SelectedTests:  sel.Stats.SelectedTests,
		TotalTests:     sel.Stats.TotalTests,
		UntestedUsages: sel.Stats.UntestedUsages,
		SelectionRate:  sel.Stats.SelectionRatePct,
	}
	for i, ts := range sel.Tests {
		out.Tests[i] = SelectedTestJSON{Test: ts.Symbol.String(), Reason: string(ts.Reason)}
	}
	return out
}

func toEntryStatusJSON(e cache.EntryStatus) EntryStatusJSON {
	out := EntryStatusJSON{Exists: e.Exists, SizeBytes: e.SizeBytes}
	if e.Exists && !e.LastModified.IsZero() {
		out.LastModified = e.LastModified.Format(time.RFC3339)
	}
	return out
}
