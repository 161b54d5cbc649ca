// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// RowStatus represents the display state of a profile row.
type RowStatus int

const (
	RowPending RowStatus = iota
	RowRunning
	RowDone
)

// String returns a string representation of the row status.
func (s RowStatus) String() string {
	switch s {
	case RowPending:
		return "pending"
	case RowRunning:
		return "running"
	case RowDone:
		return "done"
	default:
		return "unknown"
	}
}

// Row is one profile of the batch.
type Row struct {
	Profile string
	Tier    string
	Status  RowStatus
	Started time.Time
	Result  *runbatch.Result
}

// Styles contains the lipgloss styles used by the view.
type Styles struct {
	Title   lipgloss.Style
	Tier    lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Message lipgloss.Style
	Border  lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Tier: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Bold(true),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// Model is the bubbletea model for one batch.
type Model struct {
	command   string
	batchID   string
	source    <-chan *runbatch.Result
	rows      []*Row
	index     map[string]int
	tierOrder []string
	results   runbatch.Results
	spinner   spinner.Model
	viewport  viewport.Model
	styles    *Styles
	now       func() time.Time
	width     int
	height    int
	completed bool
	quitting  bool

	exitOnComplete bool
}

// NewModel creates a model with one pending row per profile of tiers, fed from source.
// The first tier is shown as running because the engine starts it immediately.
func NewModel(command, batchID string, tiers []runbatch.Tier, source <-chan *runbatch.Result) *Model {
	styles := NewStyles()
	m := &Model{
		command: command,
		batchID: batchID,
		source:  source,
		index:   make(map[string]int),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Running),
		),
		viewport: viewport.New(defaultWidth, defaultHeight),
		styles:   styles,
		now:      time.Now,
	}

	for _, tier := range tiers {
		m.tierOrder = append(m.tierOrder, tier.Name)

		for _, p := range tier.Profiles {
			m.index[p.Name] = len(m.rows)
			m.rows = append(m.rows, &Row{Profile: p.Name, Tier: tier.Name})
		}
	}

	if len(m.tierOrder) > 0 {
		m.startTier(m.tierOrder[0])
	}

	return m
}

// Rows returns the current rows in display order.
func (m *Model) Rows() []Row {
	out := make([]Row, len(m.rows))
	for i, r := range m.rows {
		out[i] = *r
	}

	return out
}

// Results returns the results received so far, in arrival order.
func (m *Model) Results() runbatch.Results {
	return m.results
}

// Completed reports whether the result stream has ended.
func (m *Model) Completed() bool {
	return m.completed
}

// applyResult marks the result's row done and starts the next tier once the
// current one has no rows left running.
func (m *Model) applyResult(r *runbatch.Result) {
	if r == nil {
		return
	}

	m.results = append(m.results, r)

	i, ok := m.index[r.Profile]
	if !ok {
		m.index[r.Profile] = len(m.rows)
		m.rows = append(m.rows, &Row{Profile: r.Profile, Tier: r.Tier})
		i = len(m.rows) - 1
	}

	row := m.rows[i]
	row.Status = RowDone
	row.Result = r

	if r.Status == runbatch.ResultStatusSkipped || !m.tierFinished(row.Tier) {
		return
	}

	if next := m.nextTier(row.Tier); next != "" {
		m.startTier(next)
	}
}

func (m *Model) startTier(name string) {
	started := m.now()

	for _, row := range m.rows {
		if row.Tier == name && row.Status == RowPending {
			row.Status = RowRunning
			row.Started = started
		}
	}
}

func (m *Model) tierFinished(name string) bool {
	for _, row := range m.rows {
		if row.Tier == name && row.Status != RowDone {
			return false
		}
	}

	return true
}

func (m *Model) nextTier(name string) string {
	for i, t := range m.tierOrder {
		if t == name && i+1 < len(m.tierOrder) {
			return m.tierOrder[i+1]
		}
	}

	return ""
}

// finish marks every row still waiting as done without a result.
func (m *Model) finish() {
	m.completed = true

	for _, row := range m.rows {
		row.Status = RowDone
	}
}
