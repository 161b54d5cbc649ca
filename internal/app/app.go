// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/fanrun/internal/config"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/history"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// ErrLoadProfiles is returned when the configured profiles file cannot be used.
var ErrLoadProfiles = errors.New("failed to load profiles")

// Fetcher returns the contents of src.
type Fetcher func(ctx context.Context, src string) ([]byte, error)

// App holds the long-lived collaborators of one process.
type App struct {
	Config   *config.Config
	Registry *profile.StaticRegistry
	Runner   *runbatch.OSRunner
	Engine   *runbatch.Engine
}

// Option configures New.
type Option func(*options)

type options struct {
	fetch   Fetcher
	engine  []runbatch.EngineOption
	profile []profile.Profile
}

// WithFetcher replaces the go-getter based fetcher used for profiles_file.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetch = f
	}
}

// WithEngineOptions appends engine options, applied after the ones derived from the config.
func WithEngineOptions(opts ...runbatch.EngineOption) Option {
	return func(o *options) {
		o.engine = append(o.engine, opts...)
	}
}

// WithProfiles uses profiles instead of loading profiles_file or the built-in set.
func WithProfiles(profiles ...profile.Profile) Option {
	return func(o *options) {
		o.profile = profiles
	}
}

// New builds the registry and the engine described by cfg.
// A nil cfg means config.Default.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	o := &options{fetch: FetchFile}
	for _, opt := range opts {
		opt(o)
	}

	registry, err := loadRegistry(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	runner := runbatch.NewOSRunner()
	runner.Shell = cfg.Shell
	runner.MaxOutputBytes = cfg.MaxOutputBytes

	if cfg.ProfileEnvVar != "" {
		runner.ProfileEnvVar = cfg.ProfileEnvVar
	}

	runner.RegionEnvVar = cfg.RegionEnvVar

	engineOpts := []runbatch.EngineOption{
		runbatch.WithRunner(runner),
		runbatch.WithPartitioner(runbatch.NewPartitioner(cfg.Tiers...)),
		runbatch.WithLedger(history.New(cfg.HistorySize)),
		runbatch.WithRegistry(registry),
		runbatch.WithStreamBuffer(cfg.StreamBuffer),
	}

	ctxlog.Debug(ctx, "engine configured",
		"profiles", len(registry.Names()),
		"tiers", cfg.Tiers,
		"historySize", cfg.HistorySize,
		"shell", cfg.Shell,
	)

	return &App{
		Config:   cfg,
		Registry: registry,
		Runner:   runner,
		Engine:   runbatch.NewEngine(append(engineOpts, o.engine...)...),
	}, nil
}

// Spec returns a command spec carrying the configured defaults.
func (a *App) Spec(command string) runbatch.CommandSpec {
	return runbatch.CommandSpec{
		Command:       command,
		Timeout:       a.Config.Timeout(),
		StopOnFailure: a.Config.StopOnFailure,
	}
}

// Request returns a request for names carrying the configured defaults.
func (a *App) Request(command string, names ...string) runbatch.Request {
	return runbatch.Request{
		Command:       command,
		Profiles:      names,
		Timeout:       a.Config.Timeout(),
		StopOnFailure: a.Config.StopOnFailure,
	}
}

func loadRegistry(ctx context.Context, cfg *config.Config, o *options) (*profile.StaticRegistry, error) {
	if o.profile != nil {
		if err := profile.Validate(o.profile); err != nil {
			return nil, errors.Join(ErrLoadProfiles, err)
		}

		return profile.NewStaticRegistry(o.profile...), nil
	}

	if cfg.ProfilesFile == "" {
		return profile.NewStaticRegistry(profile.Defaults()...), nil
	}

	ctxlog.Info(ctx, "loading profiles", "source", cfg.ProfilesFile)

	data, err := o.fetch(ctx, cfg.ProfilesFile)
	if err != nil {
		return nil, errors.Join(ErrLoadProfiles, err)
	}

	registry, err := profile.LoadBytes(sourceFileName(cfg.ProfilesFile), data)
	if err != nil {
		return nil, errors.Join(ErrLoadProfiles, err)
	}

	return registry, nil
}

// sourceFileName strips go-getter forcing prefixes and query strings so that the
// extension of the profiles file can select its format.
func sourceFileName(src string) string {
	if _, rest, ok := strings.Cut(src, "::"); ok {
		src = rest
	}

	src, _, _ = strings.Cut(src, goGetterRefSeparator)

	return filepath.Base(src)
}
