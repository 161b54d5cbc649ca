// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/color"
)

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include stdout in the output
	IncludeStdErr      bool // Whether to include stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful profiles
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

// WriteResults writes every result followed by a summary line.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	for _, r := range results {
		if err := WriteResult(w, r, options); err != nil {
			return err
		}
	}

	return WriteSummary(w, results)
}

// WriteResult writes one result: a status line, then the message and captured output when relevant.
func WriteResult(w io.Writer, r *Result, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	statusStr, labelPrefix, msgColor := statusDecoration(r.Status)

	label := r.Profile
	if label == "" {
		label = "[unnamed]"
	}

	line := strings.Builder{}
	fmt.Fprintf(
		&line,
		"%s %s%s%s",
		statusStr,
		labelPrefix,
		label,
		color.ControlString(color.Reset),
	)

	if r.Tier != "" {
		line.WriteString(color.Colorize(" ["+r.Tier+"]", color.Faint))
	}

	if r.Status != ResultStatusSkipped {
		fmt.Fprintf(&line, " %s", r.Duration.Round(time.Millisecond))
	}

	if r.ExitCode > 0 {
		fmt.Fprintf(&line, " (exit code: %d)", r.ExitCode)
	}

	line.WriteString("\n")

	showDetails := !r.Success() || options.ShowSuccessDetails
	showStdErr := showDetails && options.IncludeStdErr && len(r.StdErr) > 0

	// A failed process's message is its stderr, which is printed in full below.
	if r.Message != "" && !r.Success() && (r.Status != ResultStatusFailed || !showStdErr) {
		fmt.Fprintf(&line, "  %s %s\n", color.Colorize("➜ "+messageLabel(r.Status)+":", msgColor), firstLine(r.Message))
	}

	if showDetails && options.IncludeStdOut && len(r.StdOut) > 0 {
		line.WriteString("  ➜ Output:\n")
		line.WriteString(formatOutput(r.StdOut, "     "))
	}

	if showStdErr {
		fmt.Fprintf(&line, "  %s\n", color.Colorize("➜ Error Output:", color.FgHiRed))
		line.WriteString(formatOutput(r.StdErr, "     "))
	}

	if _, err := io.WriteString(w, line.String()); err != nil {
		return fmt.Errorf("writing result for %s: %w", label, err)
	}

	return nil
}

// WriteSummary writes a one line tally such as `3/5 succeeded, 1 failed, 1 skipped`.
func WriteSummary(w io.Writer, results Results) error {
	counts := results.CountByStatus()

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%d/%d succeeded", counts[ResultStatusSucceeded], len(results))

	for _, s := range []ResultStatus{ResultStatusFailed, ResultStatusTimedOut, ResultStatusError, ResultStatusSkipped} {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(&sb, ", %d %s", n, s)
		}
	}

	summaryColor := color.FgGreen
	if results.HasFailure() {
		summaryColor = color.FgRed
	}

	if _, err := fmt.Fprintln(w, color.Colorize(sb.String(), color.Bold, summaryColor)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return nil
}

func statusDecoration(s ResultStatus) (string, string, color.Code) {
	switch s {
	case ResultStatusSucceeded:
		return color.Colorize("✓", color.FgGreen), color.ControlString(color.Bold, color.FgGreen), color.FgGreen
	case ResultStatusFailed:
		return color.Colorize("✗", color.FgRed), color.ControlString(color.Bold, color.FgRed), color.FgRed
	case ResultStatusTimedOut:
		return color.Colorize("⏱", color.FgMagenta), color.ControlString(color.Bold, color.FgMagenta), color.FgMagenta
	case ResultStatusSkipped:
		return color.Colorize("~", color.FgYellow), color.ControlString(color.Bold, color.FgYellow), color.FgYellow
	case ResultStatusError:
		return color.Colorize("!", color.FgRed), color.ControlString(color.Bold, color.FgRed), color.FgRed
	default:
		return color.Colorize("?", color.FgWhite), "", color.FgWhite
	}
}

func messageLabel(s ResultStatus) string {
	switch s {
	case ResultStatusSkipped:
		return "Skipped"
	case ResultStatusTimedOut:
		return "Timeout"
	default:
		return "Error"
	}
}

func firstLine(s string) string {
	first, rest, found := strings.Cut(s, "\n")
	if found && strings.TrimSpace(rest) != "" {
		return first + " …"
	}

	return first
}

// formatOutput formats multi-line output with proper indentation.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
