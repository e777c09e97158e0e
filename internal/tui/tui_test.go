// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/aleutianlabs/testscope/internal/selector"
	"github.com/aleutianlabs/testscope/internal/symbol"
)

func TestNew_BuildsOneRowPerSelectedTest(t *testing.T) {
	sel := &selector.Selection{
		Tests: []selector.TestSelection{
			{Symbol: symbol.MustParse("app.core-test/handler-test"), Reason: selector.ReasonNoBaseline},
		},
		Stats: selector.Stats{TotalTests: 1, SelectedTests: 1},
	}

	m := New(sel)
	assert.Contains(t, m.View(), "handler-test")
	assert.Contains(t, m.View(), "1/1 tests selected")
}

func TestUpdate_QuitsOnQ(t *testing.T) {
	sel := &selector.Selection{}
	m := New(sel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}
