// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultStreamBuffer is the number of results buffered between the engine and a slow consumer.
const DefaultStreamBuffer = 16

// cancelledEmitGrace is how long a cancelled batch waits for the consumer to take each result.
const cancelledEmitGrace = 250 * time.Millisecond

// ErrStreamClosed is the cancellation cause when the consumer closes the stream.
var ErrStreamClosed = errors.New("result stream closed by consumer")

// ResultStream delivers the results of one batch in completion order.
// The stream is single pass. The consumer must either read it to the end or call Close.
type ResultStream struct {
	id       string
	ch       chan *Result
	closed   chan struct{}
	finished chan struct{}
	once     sync.Once
	cancel   context.CancelCauseFunc
	batch    <-chan struct{}
	orphaned atomic.Bool
}

func newResultStream(id string, buffer int, batch <-chan struct{}, cancel context.CancelCauseFunc) *ResultStream {
	if buffer < 0 {
		buffer = 0
	}

	return &ResultStream{
		id:       id,
		ch:       make(chan *Result, buffer),
		closed:   make(chan struct{}),
		finished: make(chan struct{}),
		cancel:   cancel,
		batch:    batch,
	}
}

// BatchID identifies the batch, and the history entry recorded for it.
func (s *ResultStream) BatchID() string {
	return s.id
}

// Results returns the channel results arrive on. It is closed after the last result.
func (s *ResultStream) Results() <-chan *Result {
	return s.ch
}

// All returns an iterator over the results. Breaking out of the loop closes the stream.
func (s *ResultStream) All() iter.Seq[*Result] {
	return func(yield func(*Result) bool) {
		for r := range s.ch {
			if !yield(r) {
				s.Close()
				return
			}
		}
	}
}

// Collect reads the stream to the end.
func (s *ResultStream) Collect() Results {
	var out Results

	for r := range s.ch {
		out = append(out, r)
	}

	return out
}

// Close tells the engine the consumer has gone. Running processes are killed,
// later tiers are not started and no history entry is recorded. Close does not wait
// for the engine; use Done for that. It is safe to call more than once.
func (s *ResultStream) Close() {
	s.once.Do(func() {
		close(s.closed)

		if s.cancel != nil {
			s.cancel(ErrStreamClosed)
		}
	})
}

// Done is closed once the engine has finished with the batch.
func (s *ResultStream) Done() <-chan struct{} {
	return s.finished
}

// emit hands r to the consumer, blocking while the buffer is full.
// It returns false when the consumer has closed the stream. Once the batch is
// cancelled, a consumer that does not take a result within cancelledEmitGrace
// is treated as gone and later results are dropped.
func (s *ResultStream) emit(r *Result) bool {
	select {
	case <-s.closed:
		return false
	default:
	}

	if s.orphaned.Load() {
		return false
	}

	select {
	case s.ch <- r:
		return true
	case <-s.closed:
		return false
	case <-s.batch:
	}

	timer := time.NewTimer(cancelledEmitGrace)
	defer timer.Stop()

	select {
	case s.ch <- r:
		return true
	case <-s.closed:
		return false
	case <-timer.C:
		s.orphaned.Store(true)
		return false
	}
}

// finish ends the stream. Only the producer calls it, exactly once.
func (s *ResultStream) finish() {
	close(s.ch)
	close(s.finished)
}
