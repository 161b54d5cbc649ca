// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package serve implements `fanrun serve`, the HTTP API.
package serve

import (
	"context"

	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/server"
	"github.com/urfave/cli/v3"
)

const (
	listenFlag     = "listen"
	prettyLogsFlag = "pretty-logs"
)

// ServeCmd is the command that serves the HTTP API until interrupted.
var ServeCmd = newServeCmd()

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Description: `Serve the HTTP API.

  POST   /api/execute   run a command, streaming one JSON record per result (NDJSON)
                        add ?format=json|csv|txt to receive a single export instead
  GET    /api/history   list previous batches, oldest first
  DELETE /api/history   clear the history
  GET    /api/profiles  list the profiles grouped by tier
  GET    /healthz       liveness

History is kept in memory for the lifetime of the server.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     listenFlag,
				Aliases:  []string{"l"},
				Usage:    "Address to listen on. Defaults to listen from the configuration",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     prettyLogsFlag,
				Usage:    "Log with the console handler instead of JSON",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	a, err := cmdstate.App(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	listen := a.Config.Listen
	if cmd.IsSet(listenFlag) {
		listen = cmd.String(listenFlag)
	}

	logger := ctxlog.JSONLogger
	if cmd.Bool(prettyLogsFlag) {
		logger = ctxlog.Logger(ctx)
	}

	srv := server.New(server.Config{
		Listen:         listen,
		DefaultTimeout: a.Config.Timeout(),
		StopOnFailure:  a.Config.StopOnFailure,
		TierOrder:      a.Config.Tiers,
	}, a.Engine, a.Registry, logger)

	if err := srv.Start(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
