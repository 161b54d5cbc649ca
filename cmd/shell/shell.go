// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shell implements `fanrun shell`, an interactive prompt that runs each
// entered line against the selected profiles. The engine, and so the history,
// lives as long as the shell.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"
)

const (
	historyFileFlag    = "history-file"
	defaultHistoryFile = ".fanrun_history"
)

// ShellCmd is the interactive shell command.
var ShellCmd = &cli.Command{
	Name:        "shell",
	Usage:       "Start an interactive shell",
	Description: "Start an interactive shell. Type :help at the prompt for the list of directives.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      historyFileFlag,
			Usage:     "File the line history is kept in. Defaults to ~/" + defaultHistoryFile,
			TakesFile: true,
			OnlyOnce:  true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	a, err := cmdstate.App(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	session := NewSession(a, cmd.Writer)

	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck

	line.SetCtrlCAborts(true)
	line.SetCompleter(session.Complete)

	historyFile := historyPath(cmd.String(historyFileFlag))
	loadHistory(ctx, line, historyFile)

	defer saveHistory(ctx, line, historyFile)

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := line.Prompt(session.Prompt())

		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return cli.Exit("failed to read input: "+err.Error(), 1)
		}

		if input != "" {
			line.AppendHistory(input)
		}

		if err := session.Handle(ctx, input); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}

			ctxlog.Error(ctx, "failed to write results", "error", err)
		}
	}
}

func historyPath(flag string) string {
	if flag != "" {
		return flag
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, defaultHistoryFile)
}

func loadHistory(ctx context.Context, line *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}

	defer f.Close() //nolint:errcheck

	if _, err := line.ReadHistory(f); err != nil {
		ctxlog.Debug(ctx, "failed to read shell history", "path", path, "error", err)
	}
}

func saveHistory(ctx context.Context, line *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		ctxlog.Debug(ctx, "failed to save shell history", "path", path, "error", err)
		return
	}

	defer f.Close() //nolint:errcheck

	if _, err := line.WriteHistory(f); err != nil {
		ctxlog.Debug(ctx, "failed to save shell history", "path", path, "error", err)
	}
}
