// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/color"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// Format is an export format name.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

var (
	// ErrUnknownFormat is returned for a format other than json, csv or txt.
	ErrUnknownFormat = errors.New("unknown export format, expected json, csv or txt")
	// ErrWriteExport is returned when writing the export fails.
	ErrWriteExport = errors.New("failed to write export")
)

// ParseFormat accepts json, csv, txt and text, in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Options controls an export.
type Options struct {
	Format            Format
	IncludeTimestamps bool
	Colour            bool             // JSON only, for terminals
	Now               func() time.Time // Export time, defaults to time.Now
}

// Document is the JSON export layout.
type Document struct {
	BatchID      string     `json:"batch_id,omitempty"`
	Command      string     `json:"command,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Format       Format     `json:"format"`
	ResultsCount int        `json:"results_count"`
	SuccessCount int        `json:"success_count"`
	Results      []Record   `json:"results"`
}

// Batch is what gets exported.
type Batch struct {
	ID      string
	Command string
	Results runbatch.Results
}

// Write renders the batch to w in opts.Format.
func Write(w io.Writer, b Batch, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	records := FromResults(b.ID, b.Results)
	if !opts.IncludeTimestamps {
		for i := range records {
			records[i].Finished = nil
		}
	}

	var err error

	switch opts.Format {
	case FormatJSON:
		err = writeJSON(w, b, records, opts)
	case FormatCSV:
		err = writeCSV(w, records, opts)
	case FormatText:
		err = writeText(w, b, records, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	if err != nil {
		return errors.Join(ErrWriteExport, err)
	}

	return nil
}

func writeJSON(w io.Writer, b Batch, records []Record, opts Options) error {
	doc := Document{
		BatchID:      b.ID,
		Command:      b.Command,
		Format:       FormatJSON,
		ResultsCount: len(records),
		SuccessCount: b.Results.SuccessCount(),
		Results:      records,
	}

	if opts.IncludeTimestamps {
		now := opts.Now().UTC()
		doc.Timestamp = &now
	}

	if !opts.Colour {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(doc) //nolint:wrapcheck
	}

	// colorjson only understands the types produced by encoding/json.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err //nolint:wrapcheck
	}

	out, err := color.JSONFormatter(true).Marshal(generic)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = fmt.Fprintln(w, string(out))

	return err //nolint:wrapcheck
}

var csvHeader = []string{"profile", "tier", "status", "success", "exit_code", "duration", "error", "output"}

func writeCSV(w io.Writer, records []Record, opts Options) error {
	cw := csv.NewWriter(w)

	header := csvHeader
	if opts.IncludeTimestamps {
		header = append(header[:len(header):len(header)], "finished_at")
	}

	if err := cw.Write(header); err != nil {
		return err //nolint:wrapcheck
	}

	for _, r := range records {
		row := []string{
			r.Profile,
			r.Tier,
			r.Status,
			strconv.FormatBool(r.Success),
			strconv.Itoa(r.ExitCode),
			strconv.FormatFloat(r.Duration, 'f', 3, 64),
			r.Error,
			r.Output,
		}

		if opts.IncludeTimestamps {
			row = append(row, formatTime(r.Finished))
		}

		if err := cw.Write(row); err != nil {
			return err //nolint:wrapcheck
		}
	}

	cw.Flush()

	return cw.Error() //nolint:wrapcheck
}

func writeText(w io.Writer, b Batch, records []Record, opts Options) error {
	sb := strings.Builder{}

	if b.Command != "" {
		fmt.Fprintf(&sb, "Command: %s\n", b.Command)
	}

	if opts.IncludeTimestamps {
		fmt.Fprintf(&sb, "Exported: %s\n", opts.Now().UTC().Format(time.RFC3339))
	}

	fmt.Fprintf(&sb, "Results: %d/%d succeeded\n", b.Results.SuccessCount(), len(records))

	for _, r := range records {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "=== %s [%s] %s (%.3fs)", r.Profile, r.Tier, r.Status, r.Duration)

		if opts.IncludeTimestamps && r.Finished != nil {
			fmt.Fprintf(&sb, " at %s", formatTime(r.Finished))
		}

		sb.WriteString("\n")

		if r.Error != "" {
			fmt.Fprintf(&sb, "error: %s\n", r.Error)
		}

		if r.Output != "" {
			sb.WriteString(strings.TrimRight(r.Output, "\n"))
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(time.RFC3339)
}
