// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the root of every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrCouldNotKillProcess is returned when the process group could not be killed.
	ErrCouldNotKillProcess = errors.New("could not kill process")
	// ErrTimeoutExceeded is returned when the command exceeds its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when the batch was cancelled before the profile finished.
	ErrCancelled = errors.New("batch cancelled")
	// ErrSkipOnError is returned for profiles skipped because an earlier tier failed.
	ErrSkipOnError = errors.New("skipped due to previous failure")
	// ErrBufferOverflow is returned when an output stream exceeds the configured maximum.
	ErrBufferOverflow = errors.New("output exceeds max size")
	// ErrFailedToReadBuffer is returned when an output pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrNilResult is returned when a Runner returned no result.
	ErrNilResult = errors.New("runner returned no result")
)

// ValidationError rejects a whole batch before any process is started.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
