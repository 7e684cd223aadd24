// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across NutriWise.
//
// String helpers are rune and display-width aware (go-runewidth) so that
// previews and counters never split a multi-byte character. AtomicWriteFile
// is used when saving configuration so a crash mid-write cannot leave a
// truncated config file behind.
//
//	preview := util.TruncateWidth(answer, 60)
//	n := util.NormalizedLen(input) // compared against max_message_length
//	err := util.AtomicWriteFile(path, data, 0600)
package util
