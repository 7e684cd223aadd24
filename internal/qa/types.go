// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package qa

import "time"

// =============================================================================
// WIRE TYPES
// =============================================================================

// AskRequest is the body POSTed to the question endpoint.
type AskRequest struct {
	Question string `json:"question"`
}

// askResponse is decoded loosely so a missing "answer" field can be told
// apart from an empty one.
type askResponse struct {
	Answer *string `json:"answer"`
}

// errorEnvelope is the server's error body shape.
type errorEnvelope struct {
	Error string `json:"error"`
}

// =============================================================================
// RESULTS
// =============================================================================

// Answer is a successful response.
type Answer struct {
	Text       string
	StatusCode int
	Latency    time.Duration
}

// HealthStatus is the body returned by the health endpoint.
type HealthStatus struct {
	Status           string `json:"status"`
	GeminiConfigured bool   `json:"gemini_configured"`
	APIKeyPresent    bool   `json:"api_key_present"`
}

// Healthy reports whether the backend is up and can answer questions.
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// Ready reports whether the backend has a model configured.
func (h *HealthStatus) Ready() bool {
	return h.Healthy() && h.GeminiConfigured
}
