// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

const (
	defaultWidth            = 80
	defaultHeight           = 20
	reservedLines           = 7
	minStatusBarHeight      = 10
	commandDurationRounding = 100 * time.Millisecond
	profileColumnWidth      = 24
	ellipsis                = "..."
)

// ResultMsg carries one result from the stream into the model.
type ResultMsg struct {
	Result *runbatch.Result
}

// StreamDoneMsg indicates that the result stream has been closed by the engine.
type StreamDoneMsg struct{}

// waitForResult reads the next result from the stream.
func waitForResult(source <-chan *runbatch.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-source
		if !ok {
			return StreamDoneMsg{}
		}

		return ResultMsg{Result: r}
	}
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForResult(m.source))
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 1) //nolint:mnd // border and padding
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case spinner.TickMsg:
		if m.completed {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case ResultMsg:
		m.applyResult(msg.Result)
		return m, waitForResult(m.source)

	case StreamDoneMsg:
		m.finish()
		if m.exitOnComplete {
			return m, tea.Quit
		}

		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.viewport.SetContent(m.renderRows())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("fanrun: " + m.command))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))
	view.WriteString("\n")
	view.WriteString(m.renderStatusBar())

	if m.height == 0 || m.height > minStatusBarHeight {
		help := "↑/↓ to scroll, 'q' to cancel and quit"
		if m.completed {
			help = "↑/↓ to scroll, 'q' to quit"
		}

		view.WriteString("\n")
		view.WriteString(m.styles.Help.Render(help))
	}

	return view.String()
}

func (m *Model) renderRows() string {
	var b strings.Builder

	currentTier := ""

	for _, row := range m.rows {
		if row.Tier != currentTier {
			currentTier = row.Tier
			b.WriteString(m.styles.Tier.Render("[" + currentTier + "]"))
			b.WriteString("\n")
		}

		m.renderRow(&b, row)
	}

	return b.String()
}

func (m *Model) renderRow(b *strings.Builder, row *Row) {
	icon, name := m.decorate(row)

	b.WriteString("  ")
	b.WriteString(icon)
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(strings.Repeat(" ", max(profileColumnWidth-len(row.Profile), 1)))

	switch {
	case row.Result != nil:
		b.WriteString(m.styles.Message.Render(fmt.Sprintf("%-10s %v",
			row.Result.Status, row.Result.Duration.Round(commandDurationRounding))))

		if msg := firstLine(row.Result.Message); msg != "" {
			b.WriteString("  ")
			b.WriteString(m.styles.Message.Render(truncate(msg, m.messageWidth())))
		}
	case row.Status == RowRunning:
		b.WriteString(m.styles.Running.Render(fmt.Sprintf("%-10s %v",
			row.Status, m.now().Sub(row.Started).Round(commandDurationRounding))))
	default:
		b.WriteString(m.styles.Pending.Render(row.Status.String()))
	}

	b.WriteString("\n")
}

func (m *Model) decorate(row *Row) (string, string) {
	if row.Status == RowRunning {
		return m.spinner.View(), m.styles.Running.Render(row.Profile)
	}

	if row.Result == nil {
		return m.styles.Pending.Render("·"), m.styles.Pending.Render(row.Profile)
	}

	switch row.Result.Status {
	case runbatch.ResultStatusSucceeded:
		return m.styles.Success.Render("✓"), m.styles.Success.Render(row.Profile)
	case runbatch.ResultStatusSkipped:
		return m.styles.Skipped.Render("~"), m.styles.Skipped.Render(row.Profile)
	case runbatch.ResultStatusTimedOut:
		return m.styles.Failed.Render("⏱"), m.styles.Failed.Render(row.Profile)
	default:
		return m.styles.Failed.Render("✗"), m.styles.Failed.Render(row.Profile)
	}
}

func (m *Model) renderStatusBar() string {
	counts := m.results.CountByStatus()
	summary := fmt.Sprintf("%d/%d done  %d succeeded  %d failed  %d timed out  %d skipped  %d error",
		len(m.results), len(m.rows),
		counts[runbatch.ResultStatusSucceeded],
		counts[runbatch.ResultStatusFailed],
		counts[runbatch.ResultStatusTimedOut],
		counts[runbatch.ResultStatusSkipped],
		counts[runbatch.ResultStatusError],
	)

	switch {
	case !m.completed:
		return m.styles.Running.Render(summary)
	case m.results.HasFailure():
		return m.styles.Failed.Render("completed with failures: " + summary)
	default:
		return m.styles.Success.Render("completed: " + summary)
	}
}

func (m *Model) messageWidth() int {
	if m.viewport.Width <= 0 {
		return defaultWidth
	}

	return max(m.viewport.Width-profileColumnWidth-24, len(ellipsis)+1) //nolint:mnd // status and duration columns
}

func firstLine(s string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return first
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	return string(runes[:width-len(ellipsis)]) + ellipsis
}
