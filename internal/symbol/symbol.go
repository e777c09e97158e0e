// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbol defines the fully-qualified symbol (FQS), the primary key
// used by every component of testscope: an opaque (namespace, name) pair
// with stable equality and a stable "ns/name" string form.
package symbol

import (
	"fmt"
	"strings"
)

// Symbol is a fully-qualified symbol: a (namespace, name) pair that
// uniquely identifies a top-level definition or a synthesized test.
//
// Description:
//
//	Symbol is a plain comparable struct (both fields are strings), so it can
//	be used directly as a map key — this avoids pervasive string parsing and
//	formatting at call sites, per the design note in spec.md §9.
//
// Thread Safety: Symbol is an immutable value type.
type Symbol struct {
	Namespace string
	Name      string
}

// New constructs a Symbol from a namespace and name.
func New(namespace, name string) Symbol {
	return Symbol{Namespace: namespace, Name: name}
}

// String returns the canonical "ns/name" form.
func (s Symbol) String() string {
	return s.Namespace + "/" + s.Name
}

// IsZero reports whether s is the zero Symbol (both fields empty).
func (s Symbol) IsZero() bool {
	return s.Namespace == "" && s.Name == ""
}

// Parse decodes a "ns/name" string back into a Symbol.
//
// Description:
//
//	Splits on the first "/": namespaces themselves contain dots but never
//	slashes in this source language, so the first "/" found from the left
//	is always the namespace/name separator, and any later "/" stays part of
//	the name.
//
// Errors:
//
//	Returns an error if s contains no "/", or if the namespace or the name
//	is empty.
func Parse(s string) (Symbol, error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return Symbol{}, fmt.Errorf("symbol: %q is not a valid ns/name pair (missing '/')", s)
	}
	ns, name := s[:idx], s[idx+1:]
	if ns == "" || name == "" {
		return Symbol{}, fmt.Errorf("symbol: %q has an empty namespace or name", s)
	}
	return Symbol{Namespace: ns, Name: name}, nil
}

// MustParse is like Parse but panics on error. Intended for use with
// compile-time-known literals (default test macro FQS, etc.), never for
// untrusted input.
func MustParse(s string) Symbol {
	sym, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sym
}

// MarshalText implements encoding.TextMarshaler, so Symbol round-trips
// through JSON object keys, YAML, and Badger keys using its "ns/name" form
// without a bespoke codec at each call site.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Less provides a deterministic total order over symbols, used wherever
// this repo needs a stable sort (graph serialization, fact ordering,
// selection output) per the Determinism requirement in spec.md §4.2.
func Less(a, b Symbol) bool {
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}

// Set is a lightweight set of Symbols built on a map, used throughout the
// selector and dependency graph for changed-symbol and reachability sets.
type Set map[Symbol]struct{}

// NewSet builds a Set from the given symbols.
func NewSet(syms ...Symbol) Set {
	s := make(Set, len(syms))
	for _, sym := range syms {
		s[sym] = struct{}{}
	}
	return s
}

// Add inserts sym into the set.
func (s Set) Add(sym Symbol) {
	s[sym] = struct{}{}
}

// Has reports whether sym is a member of the set.
func (s Set) Has(sym Symbol) bool {
	_, ok := s[sym]
	return ok
}

// Intersects reports whether s and other share any member. Used by the
// Selector's targeted-test rule (spec.md §4.5 step 5).
func (s Set) Intersects(other Set) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for sym := range small {
		if big.Has(sym) {
			return true
		}
	}
	return false
}

// Slice returns the set's members in deterministic (Less) order.
func (s Set) Slice() []Symbol {
	out := make([]Symbol, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sortSymbols(out)
	return out
}

func sortSymbols(syms []Symbol) {
	// Simple insertion sort: sets here are small (per-test-node target
	// lists, per-file symbol lists) and this avoids an extra import for a
	// hot path that never needs O(n log n) at scale.
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && Less(syms[j], syms[j-1]); j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
}
