// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package export

import (
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// Record is the wire form of one result. The server streams it and every export format uses it.
type Record struct {
	Type     string     `json:"type"`
	BatchID  string     `json:"batch_id,omitempty"`
	Profile  string     `json:"profile"`
	Tier     string     `json:"tier"`
	Status   string     `json:"status"`
	Success  bool       `json:"success"`
	Output   string     `json:"output"`
	Stderr   string     `json:"stderr,omitempty"`
	Error    string     `json:"error,omitempty"`
	ExitCode int        `json:"exit_code"`
	Duration float64    `json:"duration"`
	Finished *time.Time `json:"finished_at,omitempty"`
}

// RecordType is the Type of a result Record.
const RecordType = "result"

// FromResult converts r. Duration is in seconds.
func FromResult(batchID string, r *runbatch.Result) Record {
	rec := Record{
		Type:     RecordType,
		BatchID:  batchID,
		Profile:  r.Profile,
		Tier:     r.Tier,
		Status:   r.Status.String(),
		Success:  r.Success(),
		Output:   string(r.StdOut),
		Stderr:   string(r.StdErr),
		Error:    r.Message,
		ExitCode: r.ExitCode,
		Duration: r.Duration.Seconds(),
	}

	if !r.Finished.IsZero() {
		finished := r.Finished.UTC()
		rec.Finished = &finished
	}

	return rec
}

// FromResults converts every result.
func FromResults(batchID string, results runbatch.Results) []Record {
	out := make([]Record, len(results))
	for i, r := range results {
		out[i] = FromResult(batchID, r)
	}

	return out
}
