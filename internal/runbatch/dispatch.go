// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/history"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
)

const (
	skippedOnFailureMessage = "skipped due to previous failure"
	skippedOnCancelMessage  = "skipped due to cancellation"
)

// Engine dispatches a command to profiles tier by tier and records each
// completed batch in its history ledger.
type Engine struct {
	runner      Runner
	partitioner *Partitioner
	ledger      *history.Ledger
	registry    profile.Registry
	buffer      int
	newID       func() string
	now         func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRunner sets how each profile is run. Defaults to NewOSRunner().
func WithRunner(r Runner) EngineOption {
	return func(e *Engine) {
		e.runner = r
	}
}

// WithPartitioner sets the tier order. Defaults to NewPartitioner().
func WithPartitioner(p *Partitioner) EngineOption {
	return func(e *Engine) {
		e.partitioner = p
	}
}

// WithLedger sets the history ledger. Defaults to history.New(history.DefaultMax).
func WithLedger(l *history.Ledger) EngineOption {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithRegistry sets the registry ExecuteRequest resolves names with.
func WithRegistry(r profile.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStreamBuffer sets the result stream buffer size.
func WithStreamBuffer(n int) EngineOption {
	return func(e *Engine) {
		e.buffer = n
	}
}

// WithIDFunc sets the batch ID generator.
func WithIDFunc(fn func() string) EngineOption {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithClock sets the time source for history timestamps.
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = fn
	}
}

// NewEngine returns an Engine. Options left unset use the defaults documented on each option.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		buffer: DefaultStreamBuffer,
		newID:  uuid.NewString,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.runner == nil {
		e.runner = NewOSRunner()
	}

	if e.partitioner == nil {
		e.partitioner = NewPartitioner()
	}

	if e.ledger == nil {
		e.ledger = history.New(history.DefaultMax)
	}

	return e
}

// Request names profiles rather than carrying them. Use NewRequest for the defaults.
type Request struct {
	Command       string        `json:"command"`
	Profiles      []string      `json:"profiles"`
	Timeout       time.Duration `json:"-"`
	StopOnFailure bool          `json:"stop_on_failure"`
}

// NewRequest returns a request with the default timeout and stop-on-failure enabled.
func NewRequest(command string, profiles ...string) Request {
	return Request{
		Command:       command,
		Profiles:      profiles,
		Timeout:       DefaultTimeout,
		StopOnFailure: true,
	}
}

// Spec returns the CommandSpec of the request.
func (r Request) Spec() CommandSpec {
	return CommandSpec{
		Command:       r.Command,
		Timeout:       r.Timeout,
		StopOnFailure: r.StopOnFailure,
	}
}

// Registry returns the registry requests are resolved with. It may be nil.
func (e *Engine) Registry() profile.Registry {
	return e.registry
}

// Partitioner returns the engine's partitioner.
func (e *Engine) Partitioner() *Partitioner {
	return e.partitioner
}

// ExecuteRequest resolves the request's profile names through the registry and runs it.
// Names the registry does not know run as bare profiles in the lowest tier.
func (e *Engine) ExecuteRequest(ctx context.Context, req Request) *ResultStream {
	return e.Execute(ctx, req.Spec(), profile.Resolve(e.registry, req.Profiles))
}

// Execute starts the batch and returns its stream immediately.
// An empty profile list yields a stream that ends at once and leaves no history.
func (e *Engine) Execute(ctx context.Context, spec CommandSpec, profiles []profile.Profile) *ResultStream {
	batchCtx, cancel := context.WithCancelCause(ctx)
	s := newResultStream(e.newID(), e.buffer, batchCtx.Done(), cancel)

	if len(profiles) == 0 {
		cancel(nil)
		s.finish()

		return s
	}

	profiles = cloneProfiles(profiles)

	go func() {
		defer cancel(nil)
		defer s.finish()

		e.dispatch(batchCtx, s, spec, profiles)
	}()

	return s
}

// History returns the completed batches, oldest first.
func (e *Engine) History() []history.Entry {
	return e.ledger.List()
}

// ClearHistory empties the history ledger.
func (e *Engine) ClearHistory() {
	e.ledger.Clear()
}

func (e *Engine) dispatch(ctx context.Context, s *ResultStream, spec CommandSpec, profiles []profile.Profile) {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "Engine").
		With("batch", s.BatchID())

	started := e.now()

	if err := validateBatch(spec, profiles); err != nil {
		logger.Warn("batch rejected", "error", err)

		for _, p := range profiles {
			s.emit(&Result{
				Profile:  p.Name,
				Tier:     e.partitioner.TierOf(p),
				Status:   ResultStatusError,
				Message:  err.Error(),
				ExitCode: -1,
				Finished: e.now(),
				Error:    err,
			})
		}

		e.record(s.BatchID(), started, spec, profiles, 0)

		return
	}

	tiers := e.partitioner.Partition(profiles)
	succeeded := 0

	logger.Debug("dispatching batch", "command", spec.Command, "tiers", len(tiers), "profiles", len(profiles))

	for i, tier := range tiers {
		if ctx.Err() != nil {
			logger.Info("batch cancelled, skipping remaining tiers", "tier", tier.Name)
			e.skipTiers(s, tiers[i:], skippedOnCancelMessage, errors.Join(ErrCancelled, context.Cause(ctx)))

			return
		}

		n, failed := e.runTier(ctx, s, spec, tier)
		succeeded += n

		if ctx.Err() != nil {
			logger.Info("batch cancelled during tier", "tier", tier.Name)
			e.skipTiers(s, tiers[i+1:], skippedOnCancelMessage, errors.Join(ErrCancelled, context.Cause(ctx)))

			return
		}

		if failed && spec.StopOnFailure {
			logger.Info("tier failed, skipping remaining tiers", "tier", tier.Name)
			e.skipTiers(s, tiers[i+1:], skippedOnFailureMessage, ErrSkipOnError)

			break
		}
	}

	e.record(s.BatchID(), started, spec, profiles, succeeded)
}

// runTier starts every profile of the tier at once and emits results as they complete.
// It returns when all of them have finished.
func (e *Engine) runTier(ctx context.Context, s *ResultStream, spec CommandSpec, tier Tier) (int, bool) {
	results := make(chan *Result, len(tier.Profiles))
	wg := &sync.WaitGroup{}

	for _, p := range tier.Profiles {
		wg.Add(1)

		go func(p profile.Profile) {
			defer wg.Done()

			results <- e.runOne(ctx, p, spec)
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	succeeded := 0
	failed := false

	for r := range results {
		r.Tier = tier.Name
		r.Finished = e.now()

		if r.Success() {
			succeeded++
		} else {
			failed = true
		}

		s.emit(r)
	}

	return succeeded, failed
}

func (e *Engine) runOne(ctx context.Context, p profile.Profile, spec CommandSpec) *Result {
	r := e.runner.Run(ctx, p, spec)
	if r == nil {
		return &Result{
			Profile:  p.Name,
			Status:   ResultStatusError,
			Message:  ErrNilResult.Error(),
			ExitCode: -1,
			Error:    ErrNilResult,
		}
	}

	r.Profile = p.Name

	return r
}

func (e *Engine) skipTiers(s *ResultStream, tiers []Tier, message string, err error) {
	for _, t := range tiers {
		for _, p := range t.Profiles {
			r := skippedResult(p.Name, t.Name, message, err)
			r.Finished = e.now()
			s.emit(r)
		}
	}
}

func (e *Engine) record(id string, started time.Time, spec CommandSpec, profiles []profile.Profile, succeeded int) {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}

	e.ledger.Append(history.Entry{
		ID:           id,
		Command:      spec.Command,
		Timestamp:    started,
		Profiles:     names,
		SuccessCount: succeeded,
		TotalCount:   len(profiles),
	})
}

// validateBatch checks the spec and that profile names are present and unique.
func validateBatch(spec CommandSpec, profiles []profile.Profile) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(profiles))

	for _, p := range profiles {
		if p.Name == "" {
			return newValidationError("profile name must not be empty")
		}

		if _, dup := seen[p.Name]; dup {
			return newValidationError("duplicate profile %q", p.Name)
		}

		seen[p.Name] = struct{}{}
	}

	return nil
}

func cloneProfiles(in []profile.Profile) []profile.Profile {
	out := make([]profile.Profile, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}

	return out
}
