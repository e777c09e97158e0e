// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui is a read-only bubbletea viewer over the last selection
// (spec.md §6 "tui"): one row per selected test and its reason, with a
// summary footer. It never mutates the cache or re-runs analysis — that
// stays in internal/cliapp and internal/engine.
package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/aleutianlabs/testscope/internal/selector"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Model is the bubbletea model for the selection viewer.
type Model struct {
	table table.Model
	sel   *selector.Selection
}

// New builds a Model from a Selection, ready to pass to tea.NewProgram.
func New(sel *selector.Selection) Model {
	columns := []table.Column{
		{Title: "Test", Width: 48},
		{Title: "Reason", Width: 28},
	}
	rows := make([]table.Row, 0, len(sel.Tests))
	for _, ts := range sel.Tests {
		rows = append(rows, table.Row{ts.Symbol.String(), string(ts.Reason)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, 20)),
	)
	styles := table.DefaultStyles()
	styles.Header = headerStyle
	styles.Selected = styles.Selected.Bold(true)
	t.SetStyles(styles)

	return Model{table: t, sel: sel}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	footer := footerStyle.Render(fmt.Sprintf(
		"%d/%d tests selected, %d changed symbol(s), %d untested usage(s) — q to quit",
		m.sel.Stats.SelectedTests, m.sel.Stats.TotalTests, m.sel.Stats.ChangedSymbols, m.sel.Stats.UntestedUsages,
	))
	return m.table.View() + "\n" + footer
}

// Run starts the viewer and blocks until the user quits. It refuses to run
// against a non-terminal stdout (e.g. piped into a file or another
// process), since bubbletea's alt-screen rendering is meaningless there.
func Run(sel *selector.Selection) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return errNotATerminal
	}
	_, err := tea.NewProgram(New(sel)).Run()
	return err
}

var errNotATerminal = errors.New("tui: stdout is not a terminal")
