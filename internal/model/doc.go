// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the NutriWise transcript.
//
// # Key Types
//
//   - Role: Entry sender (user or bot)
//   - Entry: One immutable conversation entry
//   - Transcript: Ordered, append-only sequence of entries
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserEntry("What is a balanced breakfast?"))
//	for _, e := range t.Entries() {
//	    fmt.Printf("%s: %s\n", e.Role.DisplayName(), e.Content)
//	}
package model
