// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the NutriWise transcript.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a conversation entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "NutriWise"
	default:
		return string(r)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a single message in the transcript.
// Entries are values: once appended to a Transcript they are never modified.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry creates an entry with a generated ID.
func NewEntry(role Role, content string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserEntry creates a user entry.
func NewUserEntry(content string) Entry {
	return NewEntry(RoleUser, content)
}

// NewBotEntry creates a bot entry.
func NewBotEntry(content string) Entry {
	return NewEntry(RoleBot, content)
}

// Preview returns the first line of the content, truncated to maxWidth
// terminal cells.
func (e Entry) Preview(maxWidth int) string {
	return util.TruncateWidth(util.FirstLine(e.Content), maxWidth)
}
