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
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

const keyBaselineLatest = keyPrefixBaseline + "latest"

// LoadBaseline returns the durable verified baseline, or an empty map if
// absent (spec.md §4.6 "Verified baseline": "load() → {FQS → hex} (absent
// → empty map)").
//
// Description:
//
//	Keys on disk are the FQS's string form ("ns/name"), per spec.md §4.6
//	"Symbol-key encoding" — this survives a round-trip through JSON, whose
//	object keys must be strings, without rejecting symbols containing the
//	mangled test-name characters.
func (c *Cache) LoadBaseline() map[symbol.Symbol]string {
	encoded := c.loadBaselineRaw()
	out := make(map[symbol.Symbol]string, len(encoded))
	for k, v := range encoded {
		if sym, err := symbol.Parse(k); err == nil {
			out[sym] = v
		}
	}
	return out
}

func (c *Cache) loadBaselineRaw() map[string]string {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyBaselineLatest))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return map[string]string{}
	}

	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]string{}
	}
	return out
}

// SaveBaseline fully overwrites the baseline (spec.md §4.6 "save(m) fully
// overwrites").
func (c *Cache) SaveBaseline(m map[symbol.Symbol]string) error {
	encoded := make(map[string]string, len(m))
	for sym, h := range m {
		encoded[sym.String()] = h
	}
	payload, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyBaselineLatest), payload); err != nil {
			return err
		}
		return c.writeTimestamp(txn, keyBaselineLatest)
	})
}

// UpdateBaseline merges partial into the current baseline: save(load() ⊎
// partial) (spec.md §4.6 "update(partial) = save(load() ⊎ partial)").
func (c *Cache) UpdateBaseline(partial map[symbol.Symbol]string) error {
	current := c.LoadBaseline()
	for sym, h := range partial {
		current[sym] = h
	}
	return c.SaveBaseline(current)
}

// ClearBaseline deletes the baseline. Per spec.md §4.6 "Invalidation":
// "Baseline loss is non-recoverable and changes future selection to 'no
// baseline' mode."
func (c *Cache) ClearBaseline() error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyBaselineLatest))
	})
}

// ClearAll deletes both the snapshot and the baseline (spec.md §4.6
// "clear_all()").
func (c *Cache) ClearAll() error {
	if err := c.ClearAnalysis(); err != nil {
		return err
	}
	return c.ClearBaseline()
}
