// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdtest contains helpers shared by the command tests.
package cmdtest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/internal/app"
	"github.com/matt-FFFFFF/fanrun/internal/color"
	"github.com/matt-FFFFFF/fanrun/internal/config"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/stretchr/testify/require"
)

// Runner succeeds for every profile except those listed in Fail, which exit with code 1.
// It echoes the command and the profile name on stdout.
type Runner struct {
	Fail map[string]bool

	mu   sync.Mutex
	seen []string
}

// Run implements runbatch.Runner.
func (r *Runner) Run(_ context.Context, p profile.Profile, spec runbatch.CommandSpec) *runbatch.Result {
	r.mu.Lock()
	r.seen = append(r.seen, p.Name)
	r.mu.Unlock()

	res := &runbatch.Result{
		Profile:  p.Name,
		Status:   runbatch.ResultStatusSucceeded,
		StdOut:   []byte(spec.Command + " @ " + p.Name + "\n"),
		Duration: 10 * time.Millisecond,
	}

	if r.Fail[p.Name] {
		res.Status = runbatch.ResultStatusFailed
		res.ExitCode = 1
		res.StdErr = []byte("denied for " + p.Name)
		res.Message = strings.TrimSpace(string(res.StdErr))
	}

	return res
}

// Seen returns the profiles the runner was called for.
func (r *Runner) Seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.seen...)
}

// Context returns a context carrying an application built from cfg (nil for defaults)
// whose engine uses runner. Colour is disabled for the duration of the test.
func Context(t *testing.T, cfg *config.Config, runner runbatch.Runner) (context.Context, *app.App) {
	t.Helper()

	previous := color.Enabled()
	color.SetEnabled(false)
	t.Cleanup(func() { color.SetEnabled(previous) })

	a, err := app.New(context.Background(), cfg, app.WithEngineOptions(runbatch.WithRunner(runner)))
	require.NoError(t, err)

	return cmdstate.WithApp(context.Background(), a), a
}
