// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import "github.com/AlwangaJanet/NutriWise-Assistant/internal/model"

// EventType identifies what changed.
type EventType int

const (
	EventEntryAppended EventType = iota
	EventStateChanged
	EventConnectionChanged
	EventFailure
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventEntryAppended:
		return "entry-appended"
	case EventStateChanged:
		return "state-changed"
	case EventConnectionChanged:
		return "connection-changed"
	case EventFailure:
		return "failure"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes one visible change. Only the fields relevant to Type are
// set: Entry for EventEntryAppended, State for EventStateChanged, Connected
// for EventConnectionChanged and Outcome for EventFailure.
type Event struct {
	Type      EventType
	Entry     model.Entry
	State     State
	Connected bool
	Outcome   *Outcome
}

// Observer receives events on the goroutine that caused them. It must not
// block for long and must not call Submit or Retry.
type Observer func(Event)
