// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/ui/styles"
)

// init configures the lipgloss colour profile from NO_COLOR, FORCE_COLOR and
// TTY detection.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Emerald).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	// The REPL prompt itself stays unstyled: liner counts escape codes as
	// printable width.
	UserLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)
	BotLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Emerald)
	CommandStyle   = lipgloss.NewStyle().Foreground(styles.Cyan)
)

// RenderLabel renders "label: value" with the label padded to width.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// RenderStatus renders an OK/FAIL marker.
func RenderStatus(ok bool) string {
	if ok {
		return SuccessStyle.Render("[OK]")
	}
	return ErrorStyle.Render("[FAIL]")
}

// RenderSeparator renders a horizontal rule.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return DimStyle.Render(strings.Repeat("-", width))
}

// RenderCommandTable renders aligned "command  description" rows.
func RenderCommandTable(rows [][2]string) string {
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s  %s\n", CommandStyle.Render(fmt.Sprintf("%-18s", r[0])), InfoStyle.Render(r[1]))
	}
	return b.String()
}
