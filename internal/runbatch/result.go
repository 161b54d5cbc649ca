// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"io"
	"os"
	"time"
)

// ResultStatus is the outcome class of one profile.
type ResultStatus int

const (
	// ResultStatusUnknown is the zero value and is never emitted by the engine.
	ResultStatusUnknown ResultStatus = iota
	// ResultStatusSucceeded means the process exited with code 0.
	ResultStatusSucceeded
	// ResultStatusFailed means the process exited with a non-zero code.
	ResultStatusFailed
	// ResultStatusTimedOut means the process was killed after exceeding its timeout.
	ResultStatusTimedOut
	// ResultStatusSkipped means the profile was never started.
	ResultStatusSkipped
	// ResultStatusError means the process could not be run, or the batch was rejected.
	ResultStatusError
)

var resultStatusNames = map[ResultStatus]string{
	ResultStatusUnknown:   "unknown",
	ResultStatusSucceeded: "succeeded",
	ResultStatusFailed:    "failed",
	ResultStatusTimedOut:  "timed_out",
	ResultStatusSkipped:   "skipped",
	ResultStatusError:     "error",
}

func (s ResultStatus) String() string {
	if n, ok := resultStatusNames[s]; ok {
		return n
	}

	return resultStatusNames[ResultStatusUnknown]
}

// MarshalText renders the status name, so JSON carries "timed_out" rather than 3.
func (s ResultStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of running the command against one profile.
type Result struct {
	Profile  string        // Name of the profile
	Tier     string        // Tier the profile was dispatched in
	Status   ResultStatus  // Outcome class
	StdOut   []byte        // Captured standard output
	StdErr   []byte        // Captured standard error
	Message  string        // Human readable explanation, empty on success
	ExitCode int           // Process exit code, -1 when there is none
	Duration time.Duration // Wall clock time, zero for skipped profiles
	Finished time.Time     // When the engine received the result
	Error    error         // Underlying error, if any
}

// Success reports whether the profile succeeded.
func (r *Result) Success() bool {
	return r != nil && r.Status == ResultStatusSucceeded
}

// Results is a slice of Result pointers.
type Results []*Result

// SuccessCount returns the number of succeeded results.
func (r Results) SuccessCount() int {
	n := 0

	for _, v := range r {
		if v.Success() {
			n++
		}
	}

	return n
}

// HasFailure reports whether any result did not succeed.
func (r Results) HasFailure() bool {
	return r.SuccessCount() != len(r)
}

// CountByStatus tallies results per status.
func (r Results) CountByStatus() map[ResultStatus]int {
	out := make(map[ResultStatus]int)
	for _, v := range r {
		out[v.Status]++
	}

	return out
}

// Print outputs the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// Write outputs the results to w with default options.
func (r Results) Write(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteWithOptions outputs the results to w with the specified options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}

func skippedResult(name, tier, message string, err error) *Result {
	return &Result{
		Profile:  name,
		Tier:     tier,
		Status:   ResultStatusSkipped,
		Message:  message,
		ExitCode: -1,
		Error:    err,
	}
}
