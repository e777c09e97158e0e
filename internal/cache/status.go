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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
)

// EntryStatus reports a single store's existence, size, and freshness
// (spec.md §4.6 "Cache status": "reports for each file: existence, size in
// bytes, last-modified timestamp").
type EntryStatus struct {
	Exists       bool
	SizeBytes    int64
	LastModified time.Time
}

// HumanSize renders SizeBytes using the teacher's preferred
// humanize.Bytes formatting (e.g. "482 kB"), for the CLI's `status` output.
func (e EntryStatus) HumanSize() string {
	if !e.Exists {
		return "-"
	}
	return humanize.Bytes(uint64(e.SizeBytes))
}

// Status is the read-only report used by the operational front-end
// (spec.md §4.6 "Cache status").
type Status struct {
	Analysis EntryStatus
	Baseline EntryStatus
}

// Status reports on both stores without mutating either.
func (c *Cache) Status() Status {
	return Status{
		Analysis: c.entryStatus(keyAnalysisLatest),
		Baseline: c.entryStatus(keyBaselineLatest),
	}
}

func (c *Cache) entryStatus(key string) EntryStatus {
	var st EntryStatus
	_ = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return nil
		}
		st.Exists = true
		st.SizeBytes = item.ValueSize()
		return nil
	})
	if st.Exists {
		if ts, ok := c.readTimestamp(key + savedAtKeySuffix); ok {
			st.LastModified = ts
		}
	}
	return st
}

const savedAtKeySuffix = ":saved_at"

func (c *Cache) writeTimestamp(txn *badger.Txn, key string) error {
	return txn.Set([]byte(key+savedAtKeySuffix), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
}

func (c *Cache) readTimestamp(key string) (time.Time, bool) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
