// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
)

const (
	// DefaultMaxOutputBytes caps each of stdout and stderr.
	DefaultMaxOutputBytes = 8 * 1024 * 1024 // 8MB
	// DefaultProfileEnvVar receives the profile name in the child environment.
	DefaultProfileEnvVar = "AWS_PROFILE"
	// DefaultRegionEnvVar receives the profile region in the child environment.
	DefaultRegionEnvVar = "AWS_DEFAULT_REGION"
	// DefaultReadGrace is how long output is still collected after the process has exited.
	// Background children that keep the pipes open are cut off after it.
	DefaultReadGrace = 2 * time.Second
)

// Runner runs one command against one profile. Implementations never return nil
// and never panic: every failure is reported through the Result.
type Runner interface {
	Run(ctx context.Context, p profile.Profile, spec CommandSpec) *Result
}

var _ Runner = (*OSRunner)(nil)

// OSRunner runs commands as operating system processes through a shell.
type OSRunner struct {
	Shell          string        // Shell executable, defaults to /bin/sh (cmd.exe on Windows)
	ProfileEnvVar  string        // Variable set to the profile name
	RegionEnvVar   string        // Variable set to the profile region, when it has one
	MaxOutputBytes int64         // Cap for each output stream
	ReadGrace      time.Duration // Output collection window after exit
}

// NewOSRunner returns an OSRunner with default settings.
func NewOSRunner() *OSRunner {
	return &OSRunner{
		ProfileEnvVar:  DefaultProfileEnvVar,
		RegionEnvVar:   DefaultRegionEnvVar,
		MaxOutputBytes: DefaultMaxOutputBytes,
		ReadGrace:      DefaultReadGrace,
	}
}

// Run implements Runner. The process gets its own process group, which is killed
// as a whole when the timeout expires or ctx is cancelled. The process is always
// reaped before Run returns.
func (r *OSRunner) Run(ctx context.Context, p profile.Profile, spec CommandSpec) *Result {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSRunner").
		With("profile", p.Name)

	start := time.Now()
	res := &Result{
		Profile:  p.Name,
		Tier:     p.Tier,
		ExitCode: -1,
	}

	defer func() {
		res.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Status = ResultStatusError
		res.Error = errors.Join(ErrCancelled, context.Cause(ctx))
		res.Message = cancelMessage(ctx)

		return res
	}

	timeout := spec.EffectiveTimeout()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path, args, err := r.shellCommand(spec.Command)
	if err != nil {
		return startFailed(res, err)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return startFailed(res, errors.Join(ErrFailedToCreatePipe, err))
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()

		return startFailed(res, errors.Join(ErrFailedToCreatePipe, err))
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)
		return startFailed(res, err)
	}

	logger.Debug("starting process", "path", path, "args", args)

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Env:   r.environ(p),
		Files: []*os.File{devNull, wOut, wErr},
		Sys:   sysProcAttr(),
	})

	// The child holds its own copies; the parent must drop the write ends so the
	// readers see EOF once the process group is gone.
	closeAll(devNull, wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)
		return startFailed(res, err)
	}

	logger.Debug("process started", "pid", ps.Pid)

	maxBytes := r.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}

	stdout := readAsync(ctx, rOut, maxBytes)
	stderr := readAsync(ctx, rErr, maxBytes)

	done := make(chan struct{})
	killed := make(chan error, 1)
	watchdog := sync.WaitGroup{}

	watchdog.Add(1)

	// Kills the process group when the timeout expires or the batch is cancelled.
	go func() {
		defer watchdog.Done()

		select {
		case <-runCtx.Done():
			reason := ErrTimeoutExceeded
			if ctx.Err() != nil {
				reason = ErrCancelled
			}

			logger.Info("context done, killing process group", "pid", ps.Pid, "reason", reason)

			if err := killProcessGroup(ps); err != nil {
				if errors.Is(err, os.ErrProcessDone) {
					logger.Debug("process already done", "pid", ps.Pid)
					return
				}

				logger.Error("process kill error", "pid", ps.Pid, "error", err)
				reason = errors.Join(reason, ErrCouldNotKillProcess, err)
			}

			killed <- reason
		case <-done:
		}
	}()

	state, waitErr := ps.Wait()

	close(done)
	watchdog.Wait()

	logger.Debug("process finished", "exitCode", state.ExitCode())

	outBytes, outErr := r.collect(runCtx, stdout, rOut)
	errBytes, errErr := r.collect(runCtx, stderr, rErr)
	closeAll(rOut, rErr)

	res.StdOut = outBytes
	res.StdErr = errBytes

	var reason error
	select {
	case reason = <-killed:
	default:
	}

	switch {
	case errors.Is(reason, ErrCancelled):
		res.Status = ResultStatusError
		res.Error = errors.Join(reason, context.Cause(ctx))
		res.Message = cancelMessage(ctx)
	case errors.Is(reason, ErrTimeoutExceeded):
		res.Status = ResultStatusTimedOut
		res.Error = reason
		res.Message = fmt.Sprintf("command timed out after %s", timeout)
	case waitErr != nil:
		res.Status = ResultStatusError
		res.Error = waitErr
		res.Message = fmt.Sprintf("failed waiting for process: %v", waitErr)
	case state.ExitCode() == 0:
		res.Status = ResultStatusSucceeded
		res.ExitCode = 0
	default:
		res.Status = ResultStatusFailed
		res.ExitCode = state.ExitCode()
		res.Message = failureMessage(errBytes, state.ExitCode())
	}

	if truncated := truncationNote(outErr, errErr, maxBytes); truncated != "" {
		res.Error = errors.Join(res.Error, outErr, errErr)
		res.Message = joinMessage(res.Message, truncated)
	}

	logger.Debug("process result", "status", res.Status, "exitCode", res.ExitCode)

	return res
}

// shellCommand resolves the shell and builds its argument vector.
func (r *OSRunner) shellCommand(command string) (string, []string, error) {
	shell, flag := defaultShell()
	if r.Shell != "" {
		shell = r.Shell
	}

	path, err := exec.LookPath(shell)
	if err != nil {
		return "", nil, err //nolint:wrapcheck
	}

	return path, []string{shell, flag, command}, nil
}

// environ returns the parent environment with the profile overrides applied.
// os.StartProcess does not de-duplicate, so replaced keys are removed first.
func (r *OSRunner) environ(p profile.Profile) []string {
	overrides := maps.Clone(p.Env)
	if overrides == nil {
		overrides = make(map[string]string, 2)
	}

	if r.ProfileEnvVar != "" {
		overrides[r.ProfileEnvVar] = p.Name
	}

	if r.RegionEnvVar != "" && p.Region != "" {
		overrides[r.RegionEnvVar] = p.Region
	}

	env := slices.DeleteFunc(os.Environ(), func(kv string) bool {
		k, _, _ := strings.Cut(kv, "=")
		_, replaced := overrides[k]

		return replaced
	})

	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, k+"="+overrides[k])
	}

	return env
}

type capture struct {
	data []byte
	err  error
}

func readAsync(ctx context.Context, r io.Reader, maxBytes int64) <-chan capture {
	ch := make(chan capture, 1)

	go func() {
		data, err := readAllUpToMax(ctx, r, maxBytes)
		ch <- capture{data: data, err: err}
	}()

	return ch
}

// collect waits for a reader started by readAsync. If the output is still open
// after the grace period, or runCtx ends, the read end is closed to release it.
func (r *OSRunner) collect(runCtx context.Context, ch <-chan capture, pipe *os.File) ([]byte, error) {
	grace := r.ReadGrace
	if grace <= 0 {
		grace = DefaultReadGrace
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	var c capture

	select {
	case c = <-ch:
	case <-timer.C:
		_ = pipe.Close()
		c = <-ch
	case <-runCtx.Done():
		_ = pipe.Close()
		c = <-ch
	}

	if errors.Is(c.err, os.ErrClosed) {
		c.err = nil
	}

	return c.data, c.err
}

// readAllUpToMax reads r until EOF, keeping at most maxBytes. Anything beyond that
// is discarded so the writer never blocks on a full pipe.
func readAllUpToMax(ctx context.Context, r io.Reader, maxBytes int64) ([]byte, error) {
	var buf bytes.Buffer

	_, err := io.CopyN(&buf, r, maxBytes)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}

		return buf.Bytes(), errors.Join(ErrFailedToReadBuffer, err)
	}

	discarded, err := io.Copy(io.Discard, r)
	if discarded == 0 {
		if err != nil {
			return buf.Bytes(), errors.Join(ErrFailedToReadBuffer, err)
		}

		return buf.Bytes(), nil
	}

	ctxlog.Logger(ctx).Debug(
		"buffer overflow in readAllUpToMax",
		"bytesDiscarded", discarded,
		"maxBytes", maxBytes,
	)

	return buf.Bytes(), ErrBufferOverflow
}

func startFailed(res *Result, err error) *Result {
	res.Status = ResultStatusError
	res.Error = errors.Join(ErrCouldNotStartProcess, err)
	res.Message = fmt.Sprintf("%s: %v", ErrCouldNotStartProcess, err)

	return res
}

func cancelMessage(ctx context.Context) string {
	if cause := context.Cause(ctx); cause != nil {
		return fmt.Sprintf("%s: %v", ErrCancelled, cause)
	}

	return ErrCancelled.Error()
}

func failureMessage(stderr []byte, exitCode int) string {
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return msg
	}

	return fmt.Sprintf("exit status %d", exitCode)
}

func truncationNote(outErr, errErr error, maxBytes int64) string {
	var parts []string

	if errors.Is(outErr, ErrBufferOverflow) {
		parts = append(parts, "stdout")
	}

	if errors.Is(errErr, ErrBufferOverflow) {
		parts = append(parts, "stderr")
	}

	if len(parts) == 0 {
		return ""
	}

	return fmt.Sprintf("%s truncated at %d bytes", strings.Join(parts, " and "), maxBytes)
}

func joinMessage(msg, note string) string {
	if msg == "" {
		return note
	}

	return msg + " (" + note + ")"
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
