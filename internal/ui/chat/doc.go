// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view for NutriWise.

The model is a thin sink over a controller.Controller. Sends and retries run
as tea.Cmds; the controller's events are forwarded through a buffered channel
and re-enter Update as EventMsg values, one per waitForEvent command.

# Layout

  - Header: title, connection status, typing spinner while awaiting
  - Viewport: the transcript plus failure notices
  - Suggestions: shown until the first message is sent
  - Input: text input with a character counter
  - Toast: transient errors such as an over-long message

# Keys

	enter    send
	tab      cycle a suggestion into the input
	ctrl+r   retry the last failed message
	ctrl+l   clear the conversation
	pgup     scroll up
	pgdown   scroll down
	esc      quit
*/
package chat
