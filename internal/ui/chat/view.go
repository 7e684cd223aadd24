// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/model"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

const (
	appTitle     = "NutriWise AI"
	typingText   = "NutriWise is typing..."
	retryHint    = "ctrl+r to retry"
	timeLayout   = "15:04"
	welcomeTitle = "Hi! I'm NutriWise, your nutrition assistant."
	welcomeBody  = "Ask me about meals, nutrients, diets or healthy habits."
)

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.suggestionsVisible() {
		b.WriteString(m.renderSuggestions())
		b.WriteString("\n")
	}
	if m.toast != "" {
		b.WriteString(m.theme.Toast.Render(m.toast))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Width(max(10, m.width-2)).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	left := m.theme.HeaderTitle.Render(appTitle)
	right := m.theme.RenderStatus(m.connected)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(max(m.width, 1)).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderItems renders the transcript, failure notices and typing indicator.
func (m Model) renderItems() string {
	if len(m.items) == 0 && m.state == controller.StateIdle {
		return m.renderWelcome()
	}

	blocks := make([]string, 0, len(m.items)+1)
	for i, it := range m.items {
		if it.entry != nil {
			blocks = append(blocks, m.renderEntry(*it.entry))
			continue
		}
		blocks = append(blocks, m.renderNotice(it.notice, i == m.retryItem && m.retryReady))
	}
	if m.state == controller.StateAwaitingResponse {
		blocks = append(blocks, m.spinner.View()+" "+m.theme.Typing.Render(typingText))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderWelcome() string {
	return m.theme.BotLabel.Render(welcomeTitle) + "\n" + m.theme.Muted.Render(welcomeBody)
}

func (m Model) renderEntry(e model.Entry) string {
	stamp := m.theme.Timestamp.Render(e.Timestamp.Format(timeLayout))
	width := m.bubbleWidth()

	if e.Role == model.RoleUser {
		label := m.theme.UserLabel.Render(e.Role.DisplayName()) + " " + stamp
		return label + "\n" + m.theme.UserBubble.Width(width).Render(e.Content)
	}

	content := e.Content
	if m.renderMarkdown {
		content = m.renderer.Render(content)
	}
	label := m.theme.BotLabel.Render(e.Role.DisplayName()) + " " + stamp
	return label + "\n" + m.theme.BotBubble.Width(width).Render(content)
}

func (m Model) renderNotice(notice string, retry bool) string {
	label := m.theme.BotLabel.Render(model.RoleBot.DisplayName())
	body := notice
	if retry {
		body += "\n" + m.theme.RetryHint.Render(retryHint)
	}
	return label + "\n" + m.theme.FailureBubble.Width(m.bubbleWidth()).Render(body)
}

// =============================================================================
// SUGGESTIONS AND FOOTER
// =============================================================================

func (m Model) renderSuggestions() string {
	lines := make([]string, 0, len(m.suggestions)+1)
	lines = append(lines, m.theme.Muted.Render("Try asking:"))
	for i, s := range m.suggestions {
		s = util.TruncateWidth(s, max(10, m.width-6))
		if i == m.suggestionIndex {
			lines = append(lines, m.theme.SuggestionActive.Render("> "+s))
		} else {
			lines = append(lines, m.theme.Suggestion.Render("  "+s))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	counter := m.theme.RenderCounter(util.NormalizedLen(m.input.Value()), m.ctrl.MaxMessageLength())
	help := m.theme.Help.Render(m.keys.HelpLine())

	gap := m.width - lipgloss.Width(help) - lipgloss.Width(counter)
	if gap < 1 {
		return counter
	}
	return help + strings.Repeat(" ", gap) + counter
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
