// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns answer text into something displayable: Markup for
// HTML output and Renderer for styled terminal output.
package format
