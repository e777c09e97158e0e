// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/aleutianlabs/testscope/internal/symbol"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

// AnalysisSnapshot is the full on-disk record for one analyze run (spec.md
// §3 "Analysis snapshot").
type AnalysisSnapshot struct {
	AnalyzedAt    time.Time                    `json:"analyzed_at"`
	Paths         []string                     `json:"paths"`
	Nodes         []snapshotNode               `json:"nodes"`
	Edges         []snapshotEdge               `json:"edges"`
	ContentHashes map[string]string            `json:"content_hashes"`
	ReverseIndex  map[string][]string          `json:"reverse_index,omitempty"`
}

type snapshotNode struct {
	Symbol    string              `json:"symbol"`
	Kind      string              `json:"kind"`
	File      string              `json:"file"`
	Line      int                 `json:"line"`
	EndLine   int                 `json:"end_line"`
	DefinedBy string              `json:"defined_by,omitempty"`
	Metadata  snapshotMetadata    `json:"metadata"`
}

type snapshotMetadata struct {
	IsTest        bool            `json:"is_test,omitempty"`
	IsIntegration bool            `json:"is_integration,omitempty"`
	TestTargets   []string        `json:"test_targets,omitempty"`
	TestName      string          `json:"test_name,omitempty"`
	Private       bool            `json:"private,omitempty"`
	Macro         bool            `json:"macro,omitempty"`
	Deprecated    bool            `json:"deprecated,omitempty"`
	Extra         map[string]any  `json:"extra,omitempty"`
}

type snapshotEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// SaveAnalysis fully overwrites the analysis snapshot (spec.md §4.6
// "Analysis snapshot" contract: "save(graph, hashes, paths, reverse_index?)
// fully overwrites the file").
//
// Description:
//
//	The write happens inside a single BadgerDB transaction, which gives the
//	same crash-safety guarantee spec.md §5 asks a write-then-rename file
//	save to provide: readers never observe a half-written snapshot.
func (c *Cache) SaveAnalysis(g *symgraph.Graph, paths []string, reverseIdx map[symbol.Symbol]symbol.Set) error {
	snap := toSnapshot(g, paths, reverseIdx)

	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(payload); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyAnalysisLatest), compressed.Bytes()); err != nil {
			return err
		}
		return c.writeTimestamp(txn, keyAnalysisLatest)
	})
}

// LoadAnalysis returns the stored snapshot, or ok=false if absent or
// corrupt (spec.md §4.6: "Corrupt or absent → absent").
func (c *Cache) LoadAnalysis() (snap *AnalysisSnapshot, ok bool) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyAnalysisLatest))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}

	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	defer gr.Close()

	decompressed, err := io.ReadAll(gr)
	if err != nil {
		return nil, false
	}

	var out AnalysisSnapshot
	if err := json.Unmarshal(decompressed, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// ClearAnalysis deletes the snapshot only (spec.md §4.6 "Invalidation").
func (c *Cache) ClearAnalysis() error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyAnalysisLatest))
	})
}

func toSnapshot(g *symgraph.Graph, paths []string, reverseIdx map[symbol.Symbol]symbol.Set) *AnalysisSnapshot {
	snap := &AnalysisSnapshot{
		AnalyzedAt:    time.Now().UTC(),
		Paths:         paths,
		ContentHashes: make(map[string]string, len(g.ContentHashes)),
	}

	for _, sym := range g.SortedNodeSymbols() {
		n := g.Nodes[sym]
		sn := snapshotNode{
			Symbol:  sym.String(),
			Kind:    n.Kind.String(),
			File:    n.File,
			Line:    n.Line,
			EndLine: n.EndLine,
			Metadata: snapshotMetadata{
				IsTest:        n.Metadata.IsTest,
				IsIntegration: n.Metadata.IsIntegration,
				TestName:      n.Metadata.TestName,
				Private:       n.Metadata.Private,
				Macro:         n.Metadata.Macro,
				Deprecated:    n.Metadata.Deprecated,
				Extra:         n.Metadata.Extra,
			},
		}
		if n.HasDefinedBy() {
			sn.DefinedBy = n.DefinedBy.String()
		}
		if n.Metadata.TestTargets != nil {
			for _, t := range n.Metadata.TestTargets.Slice() {
				sn.Metadata.TestTargets = append(sn.Metadata.TestTargets, t.String())
			}
		}
		snap.Nodes = append(snap.Nodes, sn)
	}

	for _, e := range g.Edges {
		snap.Edges = append(snap.Edges, snapshotEdge{
			From: e.From.String(), To: e.To.String(), File: e.File, Line: e.Line,
		})
	}

	for sym, h := range g.ContentHashes {
		snap.ContentHashes[sym.String()] = h
	}

	if reverseIdx != nil {
		snap.ReverseIndex = make(map[string][]string, len(reverseIdx))
		for sym, set := range reverseIdx {
			for _, s := range set.Slice() {
				snap.ReverseIndex[sym.String()] = append(snap.ReverseIndex[sym.String()], s.String())
			}
		}
	}

	return snap
}

// ToGraph reconstructs a symgraph.Graph and the reverse index from a
// decoded snapshot, inverting toSnapshot.
func (snap *AnalysisSnapshot) ToGraph() (*symgraph.Graph, map[symbol.Symbol]symbol.Set, error) {
	g := symgraph.NewGraph()

	for _, sn := range snap.Nodes {
		sym, err := symbol.Parse(sn.Symbol)
		if err != nil {
			return nil, nil, err
		}
		node := &symgraph.Node{
			Symbol:  sym,
			Kind:    parseKind(sn.Kind),
			File:    sn.File,
			Line:    sn.Line,
			EndLine: sn.EndLine,
			Metadata: symgraph.Metadata{
				IsTest:        sn.Metadata.IsTest,
				IsIntegration: sn.Metadata.IsIntegration,
				TestName:      sn.Metadata.TestName,
				Private:       sn.Metadata.Private,
				Macro:         sn.Metadata.Macro,
				Deprecated:    sn.Metadata.Deprecated,
				Extra:         sn.Metadata.Extra,
			},
		}
		if sn.DefinedBy != "" {
			if db, err := symbol.Parse(sn.DefinedBy); err == nil {
				node.DefinedBy = db
			}
		}
		if len(sn.Metadata.TestTargets) > 0 {
			targets := make([]symbol.Symbol, 0, len(sn.Metadata.TestTargets))
			for _, ts := range sn.Metadata.TestTargets {
				if t, err := symbol.Parse(ts); err == nil {
					targets = append(targets, t)
				}
			}
			node.Metadata.TestTargets = symbol.NewSet(targets...)
		}
		g.Nodes[sym] = node
	}

	for _, se := range snap.Edges {
		from, err1 := symbol.Parse(se.From)
		to, err2 := symbol.Parse(se.To)
		if err1 != nil || err2 != nil {
			continue
		}
		g.Edges = append(g.Edges, symgraph.Edge{From: from, To: to, File: se.File, Line: se.Line})
	}

	for symStr, h := range snap.ContentHashes {
		if sym, err := symbol.Parse(symStr); err == nil {
			g.ContentHashes[sym] = h
		}
	}

	for _, sym := range g.SortedNodeSymbols() {
		n := g.Nodes[sym]
		rec, ok := g.Files[n.File]
		if !ok {
			rec = &symgraph.FileRecord{}
			g.Files[n.File] = rec
		}
		rec.Symbols = append(rec.Symbols, sym)
	}

	var reverseIdx map[symbol.Symbol]symbol.Set
	if snap.ReverseIndex != nil {
		reverseIdx = make(map[symbol.Symbol]symbol.Set, len(snap.ReverseIndex))
		for symStr, members := range snap.ReverseIndex {
			sym, err := symbol.Parse(symStr)
			if err != nil {
				continue
			}
			set := symbol.NewSet()
			for _, m := range members {
				if ms, err := symbol.Parse(m); err == nil {
					set.Add(ms)
				}
			}
			reverseIdx[sym] = set
		}
	}

	return g, reverseIdx, nil
}

func parseKind(s string) symgraph.Kind {
	switch s {
	case "namespace":
		return symgraph.KindNamespace
	case "test":
		return symgraph.KindTest
	default:
		return symgraph.KindVar
	}
}
