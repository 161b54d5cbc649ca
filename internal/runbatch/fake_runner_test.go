// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/profile"
)

// fakeRunner records launches and returns scripted outcomes without spawning processes.
type fakeRunner struct {
	mu       sync.Mutex
	outcomes map[string]ResultStatus
	delays   map[string]time.Duration
	launched []string
	events   []string
	active   int
	peak     int
}

var _ Runner = (*fakeRunner)(nil)

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outcomes: map[string]ResultStatus{},
		delays:   map[string]time.Duration{},
	}
}

func (f *fakeRunner) Run(ctx context.Context, p profile.Profile, _ CommandSpec) *Result {
	f.mu.Lock()
	f.launched = append(f.launched, p.Name)
	f.events = append(f.events, "start:"+p.Name)
	f.active++
	f.peak = max(f.peak, f.active)
	delay := f.delays[p.Name]
	status, ok := f.outcomes[p.Name]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.events = append(f.events, "end:"+p.Name)
		f.mu.Unlock()
	}()

	if !ok {
		status = ResultStatusSucceeded
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return &Result{
			Profile:  p.Name,
			Status:   ResultStatusError,
			Message:  ErrCancelled.Error(),
			ExitCode: -1,
			Error:    errors.Join(ErrCancelled, context.Cause(ctx)),
		}
	}

	res := &Result{Profile: p.Name, Status: status, Duration: delay}

	switch status {
	case ResultStatusSucceeded:
	case ResultStatusFailed:
		res.ExitCode = 1
		res.Message = "exit status 1"
	default:
		res.ExitCode = -1
		res.Message = status.String()
	}

	return res
}

func (f *fakeRunner) launches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.launched...)
}

func (f *fakeRunner) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.events...)
}

func (f *fakeRunner) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.peak
}

// nilRunner violates the Runner contract.
type nilRunner struct{}

func (nilRunner) Run(context.Context, profile.Profile, CommandSpec) *Result {
	return nil
}
