// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMax is the number of entries kept when no capacity is given.
const DefaultMax = 100

// Entry summarises one completed batch.
type Entry struct {
	ID           string    `json:"id"`
	Command      string    `json:"command"`
	Timestamp    time.Time `json:"timestamp"`
	Profiles     []string  `json:"profiles"`
	SuccessCount int       `json:"success_count"`
	TotalCount   int       `json:"total_count"`
}

func (e Entry) clone() Entry {
	e.Profiles = slices.Clone(e.Profiles)
	return e
}

// Ledger is a FIFO of at most Max entries. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

// New returns a ledger holding at most capacity entries. Non-positive values mean DefaultMax.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultMax
	}

	return &Ledger{
		max:     capacity,
		entries: make([]Entry, 0, capacity),
	}
}

// Append records e, evicting the oldest entry when the ledger is full.
// An entry without an ID is given a random one.
func (l *Ledger) Append(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	e = e.clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.max {
		l.entries = slices.Delete(l.entries, 0, len(l.entries)-l.max+1)
	}

	l.entries = append(l.entries, e)
}

// List returns a copy of the entries, oldest first.
func (l *Ledger) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}

	return out
}

// Clear removes every entry.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = l.entries[:0]
}

// Len returns the number of entries held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Max returns the ledger capacity.
func (l *Ledger) Max() int {
	return l.max
}
