// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctxlog.New(ctx, ctxlog.DefaultLogger)
}

func TestOSRunner_Success(t *testing.T) {
	r := NewOSRunner()

	res := r.Run(testCtx(t), profile.Profile{Name: "p1", Tier: "dev"}, DefaultCommandSpec("echo hello"))

	require.NotNil(t, res)
	assert.Equal(t, ResultStatusSucceeded, res.Status)
	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.StdOut))
	assert.Empty(t, res.Message)
	require.NoError(t, res.Error)
	assert.Equal(t, "p1", res.Profile)
	assert.Positive(t, res.Duration)
}

func TestOSRunner_FailureUsesStderr(t *testing.T) {
	res := NewOSRunner().Run(testCtx(t), profile.Profile{Name: "p1"}, DefaultCommandSpec("echo out; echo oops >&2; exit 3"))

	assert.Equal(t, ResultStatusFailed, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", res.Message)
	assert.Equal(t, "out\n", string(res.StdOut))
	assert.Equal(t, "oops\n", string(res.StdErr))
}

func TestOSRunner_FailureWithoutStderr(t *testing.T) {
	res := NewOSRunner().Run(testCtx(t), profile.Profile{Name: "p1"}, DefaultCommandSpec("exit 4"))

	assert.Equal(t, ResultStatusFailed, res.Status)
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "exit status 4", res.Message)
}

func TestOSRunner_Environment(t *testing.T) {
	t.Setenv("AWS_PROFILE", "parent")
	t.Setenv("FANRUN_INHERITED", "yes")

	p := profile.Profile{
		Name:   "aws-dev-eu",
		Region: "eu-west-1",
		Env:    map[string]string{"EXTRA": "x", "AWS_PROFILE": "ignored"},
	}

	res := NewOSRunner().Run(testCtx(t), p,
		DefaultCommandSpec(`printf '%s|%s|%s|%s' "$AWS_PROFILE" "$AWS_DEFAULT_REGION" "$EXTRA" "$FANRUN_INHERITED"`))

	require.Equal(t, ResultStatusSucceeded, res.Status, res.Message)
	assert.Equal(t, "aws-dev-eu|eu-west-1|x|yes", string(res.StdOut))
}

func TestOSRunner_CustomEnvVarNames(t *testing.T) {
	r := NewOSRunner()
	r.ProfileEnvVar = "TARGET_CONTEXT"
	r.RegionEnvVar = ""

	res := r.Run(testCtx(t), profile.Profile{Name: "ctx-a", Region: "eu-west-1"},
		DefaultCommandSpec(`printf '%s|%s' "$TARGET_CONTEXT" "${AWS_DEFAULT_REGION:-unset}"`))

	require.Equal(t, ResultStatusSucceeded, res.Status, res.Message)
	assert.Equal(t, "ctx-a|unset", string(res.StdOut))
}

func TestOSRunner_StdinIsNull(t *testing.T) {
	res := NewOSRunner().Run(testCtx(t), profile.Profile{Name: "p1"}, CommandSpec{Command: "cat", Timeout: 5 * time.Second})

	assert.Equal(t, ResultStatusSucceeded, res.Status)
	assert.Empty(t, res.StdOut)
}

func TestOSRunner_TimeoutKillsAndReaps(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	p := profile.Profile{Name: "slow", Env: map[string]string{"PIDFILE": pidFile}}
	spec := CommandSpec{Command: `echo $$ > "$PIDFILE"; sleep 30`, Timeout: 300 * time.Millisecond}

	start := time.Now()
	res := NewOSRunner().Run(testCtx(t), p, spec)

	assert.Less(t, time.Since(start), 300*time.Millisecond+time.Second, "kill and reap must follow the deadline closely")
	assert.Equal(t, ResultStatusTimedOut, res.Status)
	assert.Equal(t, "command timed out after 300ms", res.Message)
	require.ErrorIs(t, res.Error, ErrTimeoutExceeded)
	assert.Equal(t, -1, res.ExitCode)
	assert.GreaterOrEqual(t, res.Duration, 300*time.Millisecond)
	assert.Less(t, res.Duration, 300*time.Millisecond+time.Second)

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)

	err = syscall.Kill(pid, 0)
	assert.True(t, errors.Is(err, syscall.ESRCH), "process %d should be gone, got %v", pid, err)
}

func TestOSRunner_TimeoutKillsProcessGroup(t *testing.T) {
	spec := CommandSpec{Command: `sleep 30 & sleep 30 & wait`, Timeout: 200 * time.Millisecond}

	start := time.Now()
	res := NewOSRunner().Run(testCtx(t), profile.Profile{Name: "group"}, spec)

	assert.Equal(t, ResultStatusTimedOut, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second, "background children must not hold the pipes open")
}

func TestOSRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testCtx(t))

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := NewOSRunner().Run(ctx, profile.Profile{Name: "p1"}, DefaultCommandSpec("sleep 30"))

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrCancelled)
	assert.Contains(t, res.Message, "batch cancelled")
}

func TestOSRunner_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testCtx(t))
	cancel()

	res := NewOSRunner().Run(ctx, profile.Profile{Name: "p1"}, DefaultCommandSpec("echo never"))

	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrCancelled)
	assert.Empty(t, res.StdOut)
}

func TestOSRunner_CouldNotStart(t *testing.T) {
	r := NewOSRunner()
	r.Shell = "/not/a/real/shell"

	res := r.Run(testCtx(t), profile.Profile{Name: "p1"}, DefaultCommandSpec("echo hello"))

	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess)
	assert.True(t, strings.HasPrefix(res.Message, "could not start process: "), res.Message)
	assert.Equal(t, -1, res.ExitCode)
}

func TestOSRunner_LargeOutputDoesNotDeadlock(t *testing.T) {
	spec := CommandSpec{Command: "head -c 300000 /dev/zero; head -c 300000 /dev/zero >&2", Timeout: 10 * time.Second}

	res := NewOSRunner().Run(testCtx(t), profile.Profile{Name: "big"}, spec)

	require.Equal(t, ResultStatusSucceeded, res.Status, res.Message)
	assert.Len(t, res.StdOut, 300000)
	assert.Len(t, res.StdErr, 300000)
}

func TestOSRunner_OutputTruncated(t *testing.T) {
	r := NewOSRunner()
	r.MaxOutputBytes = 10

	res := r.Run(testCtx(t), profile.Profile{Name: "p1"}, DefaultCommandSpec("printf 'abcdefghijklmnop'"))

	assert.Equal(t, ResultStatusSucceeded, res.Status)
	assert.Equal(t, "abcdefghij", string(res.StdOut))
	require.ErrorIs(t, res.Error, ErrBufferOverflow)
	assert.Equal(t, "stdout truncated at 10 bytes", res.Message)
}

func TestOSRunner_BackgroundChildDoesNotBlock(t *testing.T) {
	r := NewOSRunner()
	r.ReadGrace = 100 * time.Millisecond

	start := time.Now()
	res := r.Run(testCtx(t), profile.Profile{Name: "p1"}, DefaultCommandSpec("sleep 3 & echo started"))

	assert.Less(t, time.Since(start), 2500*time.Millisecond)
	assert.Equal(t, ResultStatusSucceeded, res.Status)
	assert.Equal(t, "started\n", string(res.StdOut))
}
