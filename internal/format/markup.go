// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"regexp"
	"strings"
)

var (
	boldRegex     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRegex   = regexp.MustCompile(`\*(.*?)\*`)
	numberedRegex = regexp.MustCompile(`(?m)^\d+\.[ \t](.+)$`)
	bulletRegex   = regexp.MustCompile(`(?m)^[-•][ \t](.+)$`)
	listSpanRegex = regexp.MustCompile(`(?s)(<li>.*</li>)`)

	// Newlines that only separate list markup are dropped instead of
	// becoming <br>.
	listOpenNewline  = regexp.MustCompile(`(<ol>|<ul>|</li>)\n`)
	listCloseNewline = regexp.MustCompile(`\n(<li>|</ol>|</ul>)`)
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Markup converts a bot answer into HTML: **bold**, *italic*, "1. " ordered
// lists, "- " or "• " bullet lists, and <br> line breaks. Raw HTML in the
// answer is escaped first.
//
// When numbered items are present the list is wrapped in <ol> and bullet
// items are left unwrapped.
func Markup(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = htmlEscaper.Replace(content)

	content = boldRegex.ReplaceAllString(content, "<strong>$1</strong>")
	content = italicRegex.ReplaceAllString(content, "<em>$1</em>")

	content = numberedRegex.ReplaceAllString(content, "<li>$1</li>")
	if strings.Contains(content, "<li>") {
		content = listSpanRegex.ReplaceAllString(content, "<ol>$1</ol>")
	}

	content = bulletRegex.ReplaceAllString(content, "<li>$1</li>")
	if strings.Contains(content, "<li>") && !strings.Contains(content, "<ol>") {
		content = listSpanRegex.ReplaceAllString(content, "<ul>$1</ul>")
	}

	content = listOpenNewline.ReplaceAllString(content, "$1")
	content = listCloseNewline.ReplaceAllString(content, "$1")
	return strings.ReplaceAll(content, "\n", "<br>")
}
