// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
)

// ToastDuration is how long a toast stays visible.
const ToastDuration = 5 * time.Second

// eventBuffer is the capacity of the controller event channel. One exchange
// emits at most six events.
const eventBuffer = 64

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SubmitCmd sends text through the controller.
func SubmitCmd(ctx context.Context, ctrl *controller.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		out, err := ctrl.Submit(ctx, text)
		return SendResultMsg{Outcome: out, Err: err, Text: text}
	}
}

// RetryCmd re-sends text after the controller's backoff.
func RetryCmd(ctx context.Context, ctrl *controller.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		out, err := ctrl.Retry(ctx, text)
		return SendResultMsg{Outcome: out, Err: err, Text: text, Retry: true}
	}
}

// waitForEvent blocks until the next controller event.
func waitForEvent(events <-chan controller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// WaitForConfig blocks until the next config reload. It returns nil when
// updates is nil or closed, which Bubble Tea ignores.
func WaitForConfig(updates <-chan ConfigChangedMsg) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

// ConfigForwarder returns a config.ChangeFunc that posts reloads to a
// channel the model reads with WaitForConfig. Reloads are dropped while
// an earlier one is still unread.
func ConfigForwarder() (config.ChangeFunc, <-chan ConfigChangedMsg) {
	ch := make(chan ConfigChangedMsg, 1)
	return func(cfg *config.Config, err error) {
		select {
		case ch <- ConfigChangedMsg{Config: cfg, Err: err}:
		default:
		}
	}, ch
}

func toastTimeout(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}
