// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultTimeout applies to each profile when a CommandSpec carries none.
const DefaultTimeout = 300 * time.Second

// CommandSpec is what to run and how to gate it.
type CommandSpec struct {
	Command       string        // Shell command line, run with `<shell> -c`
	Timeout       time.Duration // Per-profile timeout
	StopOnFailure bool          // Skip later tiers after a failing tier
}

// DefaultCommandSpec returns a spec for command with the default timeout and stop-on-failure enabled.
func DefaultCommandSpec(command string) CommandSpec {
	return CommandSpec{
		Command:       command,
		Timeout:       DefaultTimeout,
		StopOnFailure: true,
	}
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when unset.
func (s CommandSpec) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}

	return s.Timeout
}

// Validate rejects empty commands, negative timeouts and command lines the shell could not parse.
func (s CommandSpec) Validate() error {
	if strings.TrimSpace(s.Command) == "" {
		return newValidationError("command is empty")
	}

	if s.Timeout < 0 {
		return newValidationError("timeout must not be negative, got %s", s.Timeout)
	}

	if err := parseCommandLine(s.Command); err != nil {
		return newValidationError("command could not be parsed: %v", err)
	}

	return nil
}

// parseCommandLine checks line against the bash grammar, a superset of what
// `/bin/sh -c` accepts for the lines people type here.
func parseCommandLine(line string) error {
	_, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(line), "")

	return err //nolint:wrapcheck
}
