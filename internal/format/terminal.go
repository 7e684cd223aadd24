// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Styles accepted by NewRenderer. StylePlain disables rendering.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
	StylePlain = "plain"
)

// DefaultWrap is the word-wrap width used when none is given.
const DefaultWrap = 80

// Renderer renders answers as terminal markdown through glamour. It falls
// back to the raw text whenever glamour cannot be built or fails.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	tr    *glamour.TermRenderer
	built bool
}

// NewRenderer returns a renderer for style wrapping at width columns.
func NewRenderer(style string, width int) *Renderer {
	if style == "" {
		style = StyleAuto
	}
	if width <= 0 {
		width = DefaultWrap
	}
	return &Renderer{style: style, width: width}
}

// Style returns the configured style name.
func (r *Renderer) Style() string {
	return r.style
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt lazily.
func (r *Renderer) SetWidth(width int) {
	if width <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width {
		return
	}
	r.width = width
	r.tr = nil
	r.built = false
}

// Render returns content as styled terminal text, trimmed of the blank
// margin glamour adds.
func (r *Renderer) Render(content string) string {
	if r == nil || r.style == StylePlain {
		return content
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.built {
		r.tr = r.build()
		r.built = true
	}
	if r.tr == nil {
		return content
	}

	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) build() *glamour.TermRenderer {
	styleOpt := glamour.WithAutoStyle()
	if r.style != StyleAuto {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(r.width))
	if err != nil {
		return nil
	}
	return tr
}
