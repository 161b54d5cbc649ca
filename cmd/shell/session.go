// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/app"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/matt-FFFFFF/fanrun/internal/signalbroker"
)

// ErrQuit is returned by Handle when the user asks to leave.
var ErrQuit = errors.New("quit")

const directivePrefix = ":"

var directives = []string{
	":all", ":clear", ":help", ":history", ":profiles", ":quit", ":stop", ":timeout", ":use",
}

const helpText = `Any line not starting with ':' is run against the selected profiles.

  :use a,b       select profiles
  :all           select every profile
  :timeout 30s   set the per-profile timeout (no argument shows it)
  :stop on|off   stop later tiers after a failure
  :history       list previous batches
  :clear         clear the history
  :profiles      list profiles by tier, * marks the selection
  :quit          leave the shell
`

// Session is the state of one interactive shell.
type Session struct {
	app      *app.App
	out      io.Writer
	selected []string
	spec     runbatch.CommandSpec
	options  *runbatch.OutputOptions
}

// NewSession starts with every profile selected and the configured defaults.
func NewSession(a *app.App, out io.Writer) *Session {
	return &Session{
		app:      a,
		out:      out,
		selected: a.Registry.Names(),
		spec:     a.Spec(""),
		options:  runbatch.DefaultOutputOptions(),
	}
}

// Prompt returns the prompt showing the size of the selection.
func (s *Session) Prompt() string {
	return fmt.Sprintf("fanrun [%d]> ", len(s.selected))
}

// Selected returns the selected profile names.
func (s *Session) Selected() []string {
	return slices.Clone(s.selected)
}

// Handle runs one input line. It returns ErrQuit when the session should end.
func (s *Session) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if !strings.HasPrefix(line, directivePrefix) {
		return s.execute(ctx, line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":q", ":exit":
		return ErrQuit
	case ":help", ":h":
		s.printf("%s", helpText)
	case ":use":
		s.use(arg)
	case ":all":
		s.selected = s.app.Registry.Names()
		s.printf("selected %d profiles\n", len(s.selected))
	case ":timeout":
		s.timeout(arg)
	case ":stop":
		s.stop(arg)
	case ":history":
		s.history()
	case ":clear":
		s.app.Engine.ClearHistory()
		s.printf("history cleared\n")
	case ":profiles":
		s.profiles()
	default:
		s.printf("unknown directive %s, try :help\n", name)
	}

	return nil
}

// Complete offers directives, and profile names after :use.
func (s *Session) Complete(line string) []string {
	if rest, ok := strings.CutPrefix(line, ":use "); ok {
		head := ""
		if i := strings.LastIndex(rest, ","); i >= 0 {
			head, rest = rest[:i+1], rest[i+1:]
		}

		var out []string

		for _, n := range s.app.Registry.Names() {
			if strings.HasPrefix(n, rest) {
				out = append(out, ":use "+head+n)
			}
		}

		return out
	}

	if !strings.HasPrefix(line, directivePrefix) {
		return nil
	}

	var out []string

	for _, d := range directives {
		if strings.HasPrefix(d, line) {
			out = append(out, d)
		}
	}

	return out
}

func (s *Session) execute(ctx context.Context, command string) error {
	if len(s.selected) == 0 {
		s.printf("no profiles selected, use :use or :all\n")
		return nil
	}

	spec := s.spec
	spec.Command = command

	stream := s.app.Engine.Execute(ctx, spec, profile.Resolve(s.app.Registry, s.selected))

	// An interrupt while a batch runs cancels the batch, not the shell.
	sigCh := signalbroker.New(ctx, os.Interrupt)
	defer signalbroker.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			ctxlog.Warn(ctx, "interrupt received, cancelling batch", "batch", stream.BatchID())
			stream.Close()
		case <-stream.Done():
		}
	}()

	var results runbatch.Results

	for r := range stream.Results() {
		results = append(results, r)

		if err := runbatch.WriteResult(s.out, r, s.options); err != nil {
			stream.Close()
			return err //nolint:wrapcheck
		}
	}

	return runbatch.WriteSummary(s.out, results) //nolint:wrapcheck
}

func (s *Session) use(arg string) {
	var names, unknown []string

	for _, n := range strings.Split(arg, ",") {
		n = strings.TrimSpace(n)
		if n == "" || slices.Contains(names, n) {
			continue
		}

		if _, ok := s.app.Registry.Lookup(n); !ok {
			unknown = append(unknown, n)
		}

		names = append(names, n)
	}

	if len(names) == 0 {
		s.printf("usage: :use name[,name]...\n")
		return
	}

	s.selected = names

	if len(unknown) > 0 {
		s.printf("unknown profiles run in tier %s: %s\n", runbatch.TierOther, strings.Join(unknown, ", "))
	}

	s.printf("selected %d profiles\n", len(names))
}

func (s *Session) timeout(arg string) {
	if arg == "" {
		s.printf("timeout %s\n", s.spec.EffectiveTimeout())
		return
	}

	d, err := time.ParseDuration(arg)
	if err != nil || d <= 0 {
		s.printf("invalid timeout %q, expected a positive duration such as 30s\n", arg)
		return
	}

	s.spec.Timeout = d
	s.printf("timeout %s\n", d)
}

func (s *Session) stop(arg string) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes":
		s.spec.StopOnFailure = true
	case "off", "false", "no":
		s.spec.StopOnFailure = false
	case "":
	default:
		s.printf("usage: :stop on|off\n")
		return
	}

	state := "off"
	if s.spec.StopOnFailure {
		state = "on"
	}

	s.printf("stop on failure %s\n", state)
}

func (s *Session) history() {
	entries := s.app.Engine.History()
	if len(entries) == 0 {
		s.printf("no history\n")
		return
	}

	for _, e := range entries {
		s.printf("%s  %s  %d/%d  %s  [%s]\n",
			e.Timestamp.Local().Format(time.DateTime),
			e.ID,
			e.SuccessCount,
			e.TotalCount,
			e.Command,
			strings.Join(e.Profiles, ","),
		)
	}
}

func (s *Session) profiles() {
	all := profile.All(s.app.Registry)

	for _, tier := range s.app.Engine.Partitioner().Partition(all) {
		s.printf("%s:\n", tier.Name)

		for _, p := range tier.Profiles {
			mark := " "
			if slices.Contains(s.selected, p.Name) {
				mark = "*"
			}

			s.printf("  %s %-20s %s\n", mark, p.Name, p.Region)
		}
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...) //nolint:errcheck
}
