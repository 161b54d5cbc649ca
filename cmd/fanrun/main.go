// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the fanrun command-line application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/fanrun"
	"github.com/matt-FFFFFF/fanrun/cmd"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel)

	cmd.RootCmd.Version = fmt.Sprintf("%s (commit: %s)", fanrun.Version, fanrun.Commit)

	if err := cmd.RootCmd.Run(ctx, os.Args); err != nil {
		ctxlog.Logger(ctx).Error("command failed", "error", err)
		cancel()
		os.Exit(1) //nolint:gocritic
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
