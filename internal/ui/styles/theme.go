// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Counter thresholds as fractions of the message limit. For the default
// 500-character limit these are 350 and 450.
const (
	CounterWarnRatio   = 0.7
	CounterDangerRatio = 0.9
)

// Theme holds the lipgloss styles for the TUI and the REPL.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header             lipgloss.Style
	HeaderTitle        lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel     lipgloss.Style
	BotLabel      lipgloss.Style
	UserBubble    lipgloss.Style
	BotBubble     lipgloss.Style
	FailureBubble lipgloss.Style
	RetryHint     lipgloss.Style
	Timestamp     lipgloss.Style
	Typing        lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer   lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// SUGGESTIONS, TOASTS, HELP
	// ==========================================================================

	Suggestion       lipgloss.Style
	SuggestionActive lipgloss.Style
	Toast            lipgloss.Style
	Help             lipgloss.Style
	Muted            lipgloss.Style
}

// NewTheme detects the terminal and builds every style.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(EmeraldDeep).
		Foreground(TextInverse).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	t.StatusConnected = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusDisconnected = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.BotLabel = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)
	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)
	t.FailureBubble = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1).
		MarginRight(4)
	t.RetryHint = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Typing = lipgloss.NewStyle().Foreground(Emerald).Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CharCount = lipgloss.NewStyle().Foreground(TextMuted)
	t.CharCountWarning = lipgloss.NewStyle().Foreground(Amber)
	t.CharCountDanger = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.Suggestion = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SuggestionActive = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.Toast = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)
	t.Help = lipgloss.NewStyle().Foreground(TextMuted)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// CounterLevel is the colour band of the character counter.
type CounterLevel int

const (
	CounterNormal CounterLevel = iota
	CounterWarning
	CounterDanger
)

// CounterLevelFor classifies n characters against limit.
func CounterLevelFor(n, limit int) CounterLevel {
	if limit <= 0 {
		return CounterNormal
	}
	switch {
	case float64(n) > float64(limit)*CounterDangerRatio:
		return CounterDanger
	case float64(n) > float64(limit)*CounterWarnRatio:
		return CounterWarning
	default:
		return CounterNormal
	}
}

// RenderCounter renders "n/limit" in the colour band for n.
func (t *Theme) RenderCounter(n, limit int) string {
	text := fmt.Sprintf("%d/%d", n, limit)
	switch CounterLevelFor(n, limit) {
	case CounterDanger:
		return t.CharCountDanger.Render(text)
	case CounterWarning:
		return t.CharCountWarning.Render(text)
	default:
		return t.CharCount.Render(text)
	}
}

// RenderStatus renders the connection indicator.
func (t *Theme) RenderStatus(connected bool) string {
	if connected {
		return t.StatusConnected.Render(StatusIndicators.Connected + " Connected")
	}
	return t.StatusDisconnected.Render(StatusIndicators.Disconnected + " Disconnected")
}
