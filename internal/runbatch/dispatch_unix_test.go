// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEngine_OSRunnerConcurrentTier(t *testing.T) {
	defer goleak.VerifyNone(t)

	profiles := []profile.Profile{
		{Name: "a", Tier: "dev"},
		{Name: "b", Tier: "dev"},
		{Name: "c", Tier: "dev"},
	}

	start := time.Now()
	results := NewEngine().Execute(testCtx(t), CommandSpec{Command: "sleep 0.4", Timeout: 10 * time.Second}, profiles).Collect()
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.Equal(t, 3, results.SuccessCount())
	assert.Less(t, elapsed, time.Second, "profiles of one tier must overlap")
}

func TestEngine_OSRunnerDurationsAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	delays := map[string]time.Duration{
		"short": 300 * time.Millisecond,
		"long":  800 * time.Millisecond,
	}

	profiles := []profile.Profile{
		{Name: "short", Tier: "dev", Env: map[string]string{"DELAY": "0.3"}},
		{Name: "long", Tier: "dev", Env: map[string]string{"DELAY": "0.8"}},
	}

	start := time.Now()
	results := NewEngine().Execute(testCtx(t), CommandSpec{Command: `sleep "$DELAY"`, Timeout: 10 * time.Second}, profiles).Collect()
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	assert.Equal(t, "short", results[0].Profile, "results arrive in completion order")

	for _, r := range results {
		want := delays[r.Profile]
		assert.Equal(t, ResultStatusSucceeded, r.Status, r.Profile)
		assert.GreaterOrEqual(t, r.Duration, want, r.Profile)
		assert.Less(t, r.Duration, want+400*time.Millisecond, "%s duration must track its own delay", r.Profile)
	}

	assert.Less(t, elapsed, 800*time.Millisecond+time.Second, "the tier takes as long as its slowest profile")
}

func TestEngine_OSRunnerGating(t *testing.T) {
	defer goleak.VerifyNone(t)

	spec := CommandSpec{
		Command:       `test "$AWS_PROFILE" != aws-dev-sg`,
		Timeout:       10 * time.Second,
		StopOnFailure: true,
	}

	e := NewEngine(WithRegistry(profile.NewStaticRegistry(profile.Defaults()...)))
	results := e.Execute(testCtx(t), spec, profile.Defaults()).Collect()

	got := byProfile(results)
	require.Len(t, got, 8)
	assert.Equal(t, ResultStatusSucceeded, got["aws-dev-eu"].Status)
	assert.Equal(t, ResultStatusFailed, got["aws-dev-sg"].Status)
	assert.Equal(t, 6, results.CountByStatus()[ResultStatusSkipped])

	hist := e.History()
	require.Len(t, hist, 1)
	assert.Equal(t, 1, hist[0].SuccessCount)
	assert.Equal(t, 8, hist[0].TotalCount)
}

func TestEngine_OSRunnerTimeoutIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	profiles := []profile.Profile{
		{Name: "slow", Env: map[string]string{"DELAY": "30"}},
		{Name: "fast", Env: map[string]string{"DELAY": "0"}},
	}

	spec := CommandSpec{Command: `sleep "$DELAY"; echo done`, Timeout: 300 * time.Millisecond}
	results := NewEngine().Execute(testCtx(t), spec, profiles).Collect()

	got := byProfile(results)
	require.Len(t, got, 2)
	assert.Equal(t, ResultStatusTimedOut, got["slow"].Status)
	assert.Equal(t, ResultStatusSucceeded, got["fast"].Status)
	assert.Equal(t, "done\n", string(got["fast"].StdOut))
	assert.Equal(t, "fast", results[0].Profile)
}
