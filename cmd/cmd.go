// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/cmd/profiles"
	"github.com/matt-FFFFFF/fanrun/cmd/run"
	"github.com/matt-FFFFFF/fanrun/cmd/serve"
	"github.com/matt-FFFFFF/fanrun/cmd/shell"
	"github.com/matt-FFFFFF/fanrun/internal/app"
	"github.com/matt-FFFFFF/fanrun/internal/config"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	configFlag       = "config"
	profilesFileFlag = "profiles-file"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		serve.ServeCmd,
		shell.ShellCmd,
		profiles.ProfilesCmd,
	},
	Flags:     rootFlags(),
	Before:    before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "fanrun",
	Description: `fanrun runs one shell command against many named profiles (for example cloud
accounts) and reports each profile's result as soon as it completes.

Profiles are grouped into tiers. Tiers run one after another, the profiles of a tier
run concurrently, and by default a failure stops the remaining tiers from starting.`,
	Usage:     "fanrun run --all -- aws sts get-caller-identity",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "Path to the configuration file. Defaults to " + config.DefaultPath + " when it exists",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  profilesFileFlag,
			Usage: "Profiles file (YAML or HCL) overriding profiles_file. Supports Hashicorp's go-getter syntax",
		},
	}
}

// before loads the configuration and builds the application once for every subcommand.
// A context that already carries an application is left alone.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if _, err := cmdstate.App(ctx); err == nil {
		return ctx, nil
	}

	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	if f := cmd.String(profilesFileFlag); f != "" {
		cfg.ProfilesFile = f
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("failed to initialise: %s", err.Error()), 1)
	}

	ctxlog.Debug(ctx, "application initialised", "profiles", len(a.Registry.Names()))

	return cmdstate.WithApp(ctx, a), nil
}
