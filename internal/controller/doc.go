// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller runs the message lifecycle of a NutriWise conversation.
//
// A message goes through validate, send, await, then either an answer that is
// appended to the transcript or a classified failure that may offer a retry:
//
//	idle --Submit/Retry--> awaiting-response --answer/failure--> idle
//
// The first MaxRetries failures of an exchange offer a retry bound to the
// original text. The failure after that is terminal: its notice tells the
// user to restart and the retry counter goes back to zero. Any answer also
// resets the counter.
//
// Sinks (the TUI, the REPL and the ask command) call Submit and Retry and
// render the returned Outcome, or follow the Event stream via an Observer.
//
//	ctrl := controller.New(qa.NewClient(), controller.DefaultOptions())
//	out, err := ctrl.Submit(ctx, "What should a pregnant woman eat?")
//	if err == nil && out.RetryOffered {
//	    out, err = ctrl.Retry(ctx, out.OriginalText)
//	}
package controller
