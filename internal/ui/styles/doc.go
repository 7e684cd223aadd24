// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the NutriWise colour palette and lipgloss theme.
// All colours are lipgloss.AdaptiveColor so light and dark terminals both
// read well, and every status colour has an ASCII indicator next to it.
package styles
