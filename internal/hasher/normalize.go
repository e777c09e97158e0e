// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hasher

import "strings"

// normalize applies spec.md §4.3 steps 2-3: strip docstrings from
// definition forms, then collapse whitespace. This is a character-stream
// scanner, deliberately not a full reader — it only needs to recognize
// three things: string-literal boundaries, the shape of a `(defXxx ...)`
// head, and a following argument vector.
func normalize(fragment string) string {
	stripped := stripDocstrings(fragment)
	return collapseWhitespace(stripped)
}

// stripDocstrings implements the docstring-elision scan (spec.md §4.3
// algorithm step 2).
func stripDocstrings(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	i := 0
	n := len(s)
	for i < n {
		c := s[i]

		if c == '"' {
			lit, end := scanStringLiteral(s, i)
			out.WriteString(lit)
			i = end
			continue
		}

		if c == '(' {
			headEnd, ident, ok := scanDefIdentifier(s, i+1)
			if ok && strings.HasPrefix(ident, "def") {
				out.WriteByte('(')
				out.WriteString(ident)
				i = headEnd
				i = stripDocstringsAfterDefHead(s, i, &out)
				continue
			}
		}

		out.WriteByte(c)
		i++
	}
	return out.String()
}

// stripDocstringsAfterDefHead consumes the name token, optional argument
// vector, and optional docstring following a recognized def-head, writing
// everything except an elided docstring literal to out. It returns the
// index in s immediately after the portion it consumed.
func stripDocstringsAfterDefHead(s string, i int, out *strings.Builder) int {
	n := len(s)

	// Skip and copy whitespace before the name token.
	i = copyWhitespace(s, i, out)

	// Name token: maximal run of non-delimiter characters.
	nameEnd, name, ok := scanDefIdentifier(s, i)
	if !ok || name == "" {
		return i
	}
	out.WriteString(name)
	i = nameEnd

	// Skip and copy whitespace before the docstring/arg-vector position.
	i = copyWhitespace(s, i, out)

	if i < n && s[i] == '"' {
		// Standard-position docstring: elide it.
		_, end := scanStringLiteral(s, i)
		return end
	}

	if i < n && s[i] == '[' {
		end := scanMatchingBracket(s, i)
		out.WriteString(s[i:end])
		i = end

		i = copyWhitespace(s, i, out)

		if i < n && s[i] == '"' {
			_, end := scanStringLiteral(s, i)
			return end
		}
		return i
	}

	// Otherwise emit unchanged: nothing more to elide here.
	return i
}

// copyWhitespace copies a maximal run of whitespace from s starting at i to
// out, returning the index immediately after it.
func copyWhitespace(s string, i int, out *strings.Builder) int {
	n := len(s)
	for i < n && isSpace(s[i]) {
		out.WriteByte(s[i])
		i++
	}
	return i
}

// scanDefIdentifier reads a maximal run of non-delimiter characters
// starting at i, returning the index just past it and the identifier text.
// ok is false if i is out of range or the first character is itself a
// delimiter (no identifier present).
func scanDefIdentifier(s string, i int) (end int, ident string, ok bool) {
	n := len(s)
	if i >= n || isDelimiter(s[i]) {
		return i, "", false
	}
	start := i
	for i < n && !isDelimiter(s[i]) {
		i++
	}
	return i, s[start:i], true
}

// scanMatchingBracket returns the index just past the `]` matching the `[`
// at position open, honoring nested brackets and string-literal awareness
// so a `]` inside a string doesn't terminate the scan early.
func scanMatchingBracket(s string, open int) int {
	n := len(s)
	depth := 0
	i := open
	for i < n {
		switch s[i] {
		case '"':
			_, end := scanStringLiteral(s, i)
			i = end
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return n
}

// scanStringLiteral reads a double-quoted string literal starting at the
// opening quote s[start], honoring backslash escapes, and returns the
// literal text (including both quotes) plus the index just past the
// closing quote. If the literal is unterminated, it consumes to the end
// of s.
func scanStringLiteral(s string, start int) (literal string, end int) {
	n := len(s)
	i := start + 1
	for i < n {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return s[start : i+1], i + 1
		}
		i++
	}
	return s[start:n], n
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '[' || c == ']' || c == '"'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// collapseWhitespace replaces any maximal run of whitespace with a single
// space and trims leading/trailing whitespace (spec.md §4.3 step 3).
func collapseWhitespace(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSpace(c) {
			inSpace = true
			continue
		}
		if inSpace && out.Len() > 0 {
			out.WriteByte(' ')
		}
		inSpace = false
		out.WriteByte(c)
	}
	return out.String()
}
