// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics records Prometheus counters/gauges for each analyze and
// select run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aleutianlabs/testscope/internal/selector"
)

var (
	analyzeRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "testscope",
		Subsystem: "analyze",
		Name:      "runs_total",
		Help:      "Total analyze invocations.",
	})

	analyzeSymbolsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "testscope",
		Subsystem: "analyze",
		Name:      "symbols_total",
		Help:      "Symbol count of the most recent analysis.",
	})

	selectRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "testscope",
		Subsystem: "select",
		Name:      "runs_total",
		Help:      "Total select invocations.",
	})

	selectTestsSelected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "testscope",
		Subsystem: "select",
		Name:      "tests_selected",
		Help:      "Tests selected by the most recent select run.",
	})

	selectTestsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "testscope",
		Subsystem: "select",
		Name:      "tests_total",
		Help:      "Total test count known to the most recent select run.",
	})

	selectChangedSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "testscope",
		Subsystem: "select",
		Name:      "changed_symbols",
		Help:      "Changed symbol count of the most recent select run.",
	})

	selectReasonTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "testscope",
		Subsystem: "select",
		Name:      "reason_total",
		Help:      "Selected-test count by selection reason.",
	}, []string{"reason"})
)

// RecordAnalyze records a completed analyze run.
func RecordAnalyze(symbolCount int) {
	analyzeRunsTotal.Inc()
	analyzeSymbolsTotal.Set(float64(symbolCount))
}

// RecordSelection records a completed select run's Stats and per-test
// reasons.
func RecordSelection(sel *selector.Selection) {
	selectRunsTotal.Inc()
	selectTestsSelected.Set(float64(sel.Stats.SelectedTests))
	selectTestsTotal.Set(float64(sel.Stats.TotalTests))
	selectChangedSymbols.Set(float64(sel.Stats.ChangedSymbols))

	for _, ts := range sel.Tests {
		selectReasonTotal.WithLabelValues(string(ts.Reason)).Inc()
	}
}
