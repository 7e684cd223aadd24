// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
)

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendResultMsg carries the result of a Submit or Retry.
type SendResultMsg struct {
	Outcome controller.Outcome
	Err     error
	Text    string
	Retry   bool
}

// EventMsg wraps one controller event.
type EventMsg struct {
	Event controller.Event
}

// eventsClosedMsg signals that the event channel was closed.
type eventsClosedMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigChangedMsg reports a reloaded config file. Err is set when the file
// could not be loaded; Config is then nil.
type ConfigChangedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastExpiredMsg hides the toast with the matching ID.
type ToastExpiredMsg struct {
	ID int
}
