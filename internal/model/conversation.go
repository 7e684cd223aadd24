// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the NutriWise transcript.
package model

import "sync"

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript holds the in-memory conversation history.
//
// The transcript is append-only: entries are never edited or reordered,
// and the only way to remove them is Clear. It is safe for concurrent use.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	epoch   uint64
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]Entry, 0)}
}

// Append adds an entry to the end of the transcript and returns the epoch
// it was appended under.
func (t *Transcript) Append(e Entry) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return t.epoch
}

// AppendIfEpoch appends e only when the transcript has not been cleared
// since epoch was observed. Returns false if the entry was dropped.
func (t *Transcript) AppendIfEpoch(e Entry, epoch uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.epoch != epoch {
		return false
	}
	t.entries = append(t.entries, e)
	return true
}

// Clear removes all entries.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make([]Entry, 0)
	t.epoch++
}

// Entries returns a copy of the entries in order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
