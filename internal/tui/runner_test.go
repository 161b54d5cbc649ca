// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type exitCodeRunner map[string]int

func (r exitCodeRunner) Run(_ context.Context, p profile.Profile, _ runbatch.CommandSpec) *runbatch.Result {
	res := &runbatch.Result{
		Profile:  p.Name,
		Status:   runbatch.ResultStatusSucceeded,
		ExitCode: r[p.Name],
		Duration: time.Millisecond,
	}
	if res.ExitCode != 0 {
		res.Status = runbatch.ResultStatusFailed
	}

	return res
}

func headless() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	}
}

func TestRunner_Run(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	engine := runbatch.NewEngine(runbatch.WithRunner(exitCodeRunner{"kds-ets-np": 2}))
	runner := NewRunner(engine, headless()...)
	runner.ExitOnComplete = true

	profiles := []profile.Profile{
		{Name: "aws-dev-eu", Tier: "dev"},
		{Name: "kds-ets-np", Tier: "np"},
	}

	results, err := runner.Run(context.Background(), runbatch.DefaultCommandSpec("echo hi"), profiles)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results.SuccessCount())

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].TotalCount)
}

func TestRunner_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	engine := runbatch.NewEngine(runbatch.WithRunner(exitCodeRunner{}))
	runner := NewRunner(engine, headless()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, runbatch.DefaultCommandSpec("echo hi"), []profile.Profile{{Name: "aws-dev-eu"}})
	require.NoError(t, err)
	assert.Empty(t, engine.History())
}
