// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTiers() []runbatch.Tier {
	return []runbatch.Tier{
		{Name: "dev", Profiles: []profile.Profile{{Name: "aws-dev-eu", Tier: "dev"}, {Name: "aws-dev-sg", Tier: "dev"}}},
		{Name: "other", Profiles: []profile.Profile{{Name: "kds-ets-pd", Tier: "pd"}}},
	}
}

func statuses(m *Model) map[string]RowStatus {
	out := make(map[string]RowStatus)
	for _, r := range m.Rows() {
		out[r.Profile] = r.Status
	}

	return out
}

func TestRowStatus_String(t *testing.T) {
	assert.Equal(t, "pending", RowPending.String())
	assert.Equal(t, "running", RowRunning.String())
	assert.Equal(t, "done", RowDone.String())
	assert.Equal(t, "unknown", RowStatus(42).String())
}

func TestNewModel(t *testing.T) {
	m := NewModel("echo hi", "batch-1", testTiers(), nil)

	rows := m.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "aws-dev-eu", rows[0].Profile)
	assert.Equal(t, "dev", rows[0].Tier)
	assert.Equal(t, "other", rows[2].Tier)

	assert.Equal(t, map[string]RowStatus{
		"aws-dev-eu": RowRunning,
		"aws-dev-sg": RowRunning,
		"kds-ets-pd": RowPending,
	}, statuses(m))
	assert.False(t, m.Completed())
	assert.Empty(t, m.Results())
}

func TestModel_NextTierStartsWhenCurrentFinishes(t *testing.T) {
	m := NewModel("echo hi", "batch-1", testTiers(), nil)

	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "aws-dev-sg", Tier: "dev", Status: runbatch.ResultStatusSucceeded}})
	assert.Equal(t, RowDone, statuses(m)["aws-dev-sg"])
	assert.Equal(t, RowPending, statuses(m)["kds-ets-pd"])

	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "aws-dev-eu", Tier: "dev", Status: runbatch.ResultStatusSucceeded}})
	assert.Equal(t, RowRunning, statuses(m)["kds-ets-pd"])

	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "kds-ets-pd", Tier: "other", Status: runbatch.ResultStatusFailed, ExitCode: 1}})
	m.Update(StreamDoneMsg{})

	assert.True(t, m.Completed())
	require.Len(t, m.Results(), 3)
	assert.Equal(t, "aws-dev-sg", m.Results()[0].Profile)
	assert.True(t, m.Results().HasFailure())
}

func TestModel_SkippedTierIsNotStarted(t *testing.T) {
	m := NewModel("false", "batch-1", testTiers(), nil)

	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "aws-dev-eu", Tier: "dev", Status: runbatch.ResultStatusFailed}})
	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "aws-dev-sg", Tier: "dev", Status: runbatch.ResultStatusSucceeded}})
	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "kds-ets-pd", Tier: "other", Status: runbatch.ResultStatusSkipped}})

	rows := m.Rows()
	require.NotNil(t, rows[2].Result)
	assert.Equal(t, runbatch.ResultStatusSkipped, rows[2].Result.Status)
	assert.Equal(t, RowDone, rows[2].Status)
}

func TestModel_UnknownProfileGetsRow(t *testing.T) {
	m := NewModel("echo", "batch-1", testTiers(), nil)

	m.Update(ResultMsg{Result: &runbatch.Result{Profile: "stray", Tier: "other", Status: runbatch.ResultStatusError}})

	rows := m.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "stray", rows[3].Profile)
	assert.Equal(t, RowDone, rows[3].Status)
}

func TestModel_NilResultIgnored(t *testing.T) {
	m := NewModel("echo", "batch-1", testTiers(), nil)
	m.Update(ResultMsg{})
	assert.Empty(t, m.Results())
}

func TestModel_StreamDoneFinishesPendingRows(t *testing.T) {
	m := NewModel("echo", "batch-1", testTiers(), nil)

	_, cmd := m.Update(StreamDoneMsg{})

	assert.Nil(t, cmd)
	for _, r := range m.Rows() {
		assert.Equal(t, RowDone, r.Status)
	}
}

func TestModel_ExitOnComplete(t *testing.T) {
	m := NewModel("echo", "batch-1", testTiers(), nil)
	m.exitOnComplete = true

	_, cmd := m.Update(StreamDoneMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel("echo", "batch-1", testTiers(), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestModel_WaitForResult(t *testing.T) {
	source := make(chan *runbatch.Result, 1)
	source <- &runbatch.Result{Profile: "aws-dev-eu"}
	close(source)

	msg := waitForResult(source)()
	require.IsType(t, ResultMsg{}, msg)
	assert.Equal(t, "aws-dev-eu", msg.(ResultMsg).Result.Profile)

	assert.Equal(t, StreamDoneMsg{}, waitForResult(source)())
}

func TestModel_View(t *testing.T) {
	m := NewModel("terraform plan", "batch-1", testTiers(), nil)
	m.now = func() time.Time { return time.Unix(100, 0) }
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(ResultMsg{Result: &runbatch.Result{
		Profile:  "aws-dev-eu",
		Tier:     "dev",
		Status:   runbatch.ResultStatusFailed,
		Message:  "access denied\nmore detail",
		Duration: 1500 * time.Millisecond,
	}})

	view := m.View()
	assert.Contains(t, view, "fanrun: terraform plan")
	assert.Contains(t, view, "[dev]")
	assert.Contains(t, view, "[other]")
	assert.Contains(t, view, "aws-dev-eu")
	assert.Contains(t, view, "access denied")
	assert.NotContains(t, view, "more detail")
	assert.Contains(t, view, "1/3 done")
	assert.Contains(t, view, "'q' to cancel and quit")

	m.Update(StreamDoneMsg{})
	assert.Contains(t, m.View(), "completed with failures")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 2), 10))
	assert.Equal(t, "ééé...", truncate(strings.Repeat("é", 20), 6))
}
