// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package qa is the HTTP client for the NutriWise answer service.
//
// The service takes POST {"question": "..."} and replies {"answer": "..."}.
// A GET on /health reports {status, gemini_configured, api_key_present}.
//
// # Failures
//
// Every error from Ask and CheckHealth is a *Failure carrying a FailureKind
// and a fixed user-facing Message:
//
//   - timeout: no response within the timeout, or the caller cancelled
//   - network-unreachable: the request could not be sent
//   - server-error: a 5xx status
//   - malformed-response: a 2xx body that is not JSON or has no answer
//   - unexpected-status: any other non-2xx status
//
// Use errors.Is with the sentinel values (ErrTimeout, ErrServerError, ...)
// or the Is* helpers to branch on kind.
package qa
