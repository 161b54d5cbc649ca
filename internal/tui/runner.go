// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// ErrTUI is returned when the terminal program fails.
var ErrTUI = errors.New("terminal user interface error")

// Runner drives one batch through the terminal user interface.
type Runner struct {
	engine  *runbatch.Engine
	options []tea.ProgramOption

	// ExitOnComplete quits as soon as the last result arrives instead of waiting for 'q'.
	ExitOnComplete bool
}

// NewRunner creates a runner. Without options the program uses the alternate screen.
func NewRunner(engine *runbatch.Engine, options ...tea.ProgramOption) *Runner {
	if len(options) == 0 {
		options = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &Runner{
		engine:  engine,
		options: options,
	}
}

// Run executes spec against profiles and shows the results live.
// Quitting before the batch completes closes the stream, which cancels the batch.
// The results received before that point are returned.
func (r *Runner) Run(ctx context.Context, spec runbatch.CommandSpec, profiles []profile.Profile) (runbatch.Results, error) {
	stream := r.engine.Execute(ctx, spec, profiles)

	model := NewModel(spec.Command, stream.BatchID(), r.engine.Partitioner().Partition(profiles), stream.Results())

	model.exitOnComplete = r.ExitOnComplete

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.options...)
	program := tea.NewProgram(model, opts...)

	_, err := program.Run()

	stream.Close()
	<-stream.Done()

	if !model.Completed() {
		ctxlog.Warn(ctx, "batch cancelled before completion",
			"batch", stream.BatchID(),
			"received", len(model.Results()),
			"total", len(profiles),
		)
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return model.Results(), errors.Join(ErrTUI, err)
	}

	return model.Results(), nil
}
