// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements `fanrun run`, which executes one command against the
// selected profiles and prints each result as it arrives.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/internal/color"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/export"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/matt-FFFFFF/fanrun/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	profileFlag              = "profile"
	allFlag                  = "all"
	timeoutFlag              = "timeout"
	noStopFlag               = "no-stop"
	tuiFlag                  = "tui"
	exportFlag               = "export"
	outFlag                  = "out"
	timestampsFlag           = "timestamps"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	cliExitStr               = ""
)

var (
	// ErrNoCommand is returned when no command follows the flags.
	ErrNoCommand = errors.New("no command given, pass it after --")
	// ErrNoProfiles is returned when neither --profile nor --all is given.
	ErrNoProfiles = errors.New("no profiles selected, use --profile or --all")
)

// RunCmd is the command that fans one command out to many profiles.
var RunCmd = newRunCmd()

func newRunCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a command against profiles",
		UsageText: "fanrun run [--profile NAME]... [--all] [options] -- COMMAND [ARGS]...",
		Description: `Run a shell command once per selected profile.
Each process gets the profile name in AWS_PROFILE (see profile_env_var) and, when the
profile has one, its region in AWS_DEFAULT_REGION (see region_env_var).

Profiles run tier by tier. Within a tier all profiles run concurrently. Unless
--no-stop is given, a failure in a tier skips every later tier.

Results are printed as they complete. Use --export to write them as json, csv or txt
instead, optionally to a file with --out.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    profileFlag,
				Aliases: []string{"p"},
				Usage:   "Profile to run against. Specify multiple times or comma separate",
			},
			&cli.BoolFlag{
				Name:     allFlag,
				Aliases:  []string{"a"},
				Usage:    "Run against every known profile",
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:     timeoutFlag,
				Aliases:  []string{"t"},
				Usage:    "Timeout for each profile. Defaults to default_timeout from the configuration",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     noStopFlag,
				Usage:    "Run every tier even when an earlier tier failed",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     tuiFlag,
				Aliases:  []string{"interactive"},
				Usage:    "Run with interactive Terminal User Interface (TUI) showing real-time progress",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     exportFlag,
				Aliases:  []string{"e"},
				Usage:    "Export the results as json, csv or txt instead of printing them",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Write the export to this file instead of stdout",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:     timestampsFlag,
				Usage:    "Include timestamps in the export",
				Value:    true,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     noOutputStdErrFlag,
				Aliases:  []string{"no-stderr"},
				Usage:    "Exclude stderr output from the results",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputStdOutFlag,
				Aliases:  []string{"stdout"},
				Usage:    "Include stdout output in the results",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputSuccessDetailsFlag,
				Aliases:  []string{"success"},
				Usage:    "Include output of successful profiles",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	a, err := cmdstate.App(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	command := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if command == "" {
		return cli.Exit(ErrNoCommand.Error(), 1)
	}

	names := splitNames(cmd.StringSlice(profileFlag))
	if cmd.Bool(allFlag) {
		names = a.Registry.Names()
	}

	if len(names) == 0 {
		return cli.Exit(ErrNoProfiles.Error(), 1)
	}

	spec := a.Spec(command)
	if cmd.IsSet(timeoutFlag) {
		spec.Timeout = cmd.Duration(timeoutFlag)
	}

	if cmd.Bool(noStopFlag) {
		spec.StopOnFailure = false
	}

	var format export.Format

	exporting := cmd.IsSet(exportFlag)
	if exporting {
		if format, err = export.ParseFormat(cmd.String(exportFlag)); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	profiles := profile.Resolve(a.Registry, names)

	logger.Debug("starting batch", "profiles", names, "timeout", spec.EffectiveTimeout(), "stopOnFailure", spec.StopOnFailure)

	var (
		res     runbatch.Results
		batchID string
	)

	if cmd.Bool(tuiFlag) {
		logger.Info("Starting interactive TUI mode...")

		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		var tuiErr error

		res, tuiErr = tui.NewRunner(a.Engine).Run(tuiCtx, spec, profiles)

		buf.WriteTo(cmd.ErrWriter) //nolint:errcheck

		if tuiErr != nil {
			logger.Error(fmt.Sprintf("TUI execution error: %s", tuiErr.Error()), "error", tuiErr.Error())
		}

		if !exporting {
			if err := runbatch.WriteResults(cmd.Writer, res, opts); err != nil {
				return cli.Exit("Failed to write results: "+err.Error(), 1)
			}
		}
	} else {
		stream := a.Engine.Execute(ctx, spec, profiles)
		batchID = stream.BatchID()

		for r := range stream.All() {
			res = append(res, r)

			if exporting {
				continue
			}

			if err := runbatch.WriteResult(cmd.Writer, r, opts); err != nil {
				stream.Close()
				return cli.Exit("Failed to write results: "+err.Error(), 1)
			}
		}

		if !exporting {
			if err := runbatch.WriteSummary(cmd.Writer, res); err != nil {
				return cli.Exit("Failed to write results: "+err.Error(), 1)
			}
		}
	}

	if exporting {
		b := export.Batch{ID: batchID, Command: command, Results: res}
		if err := writeExport(cmd, b, format); err != nil {
			logger.Error(err.Error())
			return cli.Exit(cliExitStr, 1)
		}
	}

	if res.HasFailure() {
		logger.Warn("Some profiles did not succeed. See above for details.")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func writeExport(cmd *cli.Command, b export.Batch, format export.Format) error {
	opts := export.Options{
		Format:            format,
		IncludeTimestamps: cmd.Bool(timestampsFlag),
	}

	var w io.Writer = cmd.Writer

	if name := cmd.String(outFlag); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", name, err)
		}

		defer f.Close() //nolint:errcheck

		w = f
	} else {
		opts.Colour = format == export.FormatJSON && color.Enabled()
	}

	return export.Write(w, b, opts) //nolint:wrapcheck
}

// splitNames accepts both repeated flags and comma separated lists.
func splitNames(values []string) []string {
	var out []string

	for _, v := range values {
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, n)
			}
		}
	}

	return out
}
