// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Emerald - Brand color, bot messages, connected status
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// EmeraldDeep - Darker emerald for header background
var EmeraldDeep = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#064E3B"}

// Cyan - User highlights, suggestions
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Failures, disconnected status, counter near the limit
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep - Failure bubble background
var RoseDeep = lipgloss.AdaptiveColor{Light: "#FFE4E6", Dark: "#881337"}

// Amber - Warnings, counter approaching the limit, retry hints
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

var BotBubbleFg = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#D1FAE5"}
var BotBubbleBorder = lipgloss.AdaptiveColor{Light: "#6EE7B7", Dark: "#10B981"}

// =============================================================================
// ACCESSIBILITY
// =============================================================================

// StatusIndicators pair every status color with an ASCII shape.
var StatusIndicators = struct {
	Connected    string
	Disconnected string
	Warning      string
	Pending      string
}{
	Connected:    "[*]",
	Disconnected: "[X]",
	Warning:      "[!]",
	Pending:      "[ ]",
}
