// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "ask", "config"
	Action  string // e.g. "send", "set"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input on the command line.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ConfigError wraps a failure to load or save the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error (%s): %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnhealthyError reports a reachable backend that is not ready to answer.
type UnhealthyError struct {
	Status *qa.HealthStatus
}

func (e *UnhealthyError) Error() string {
	if e.Status == nil {
		return "service unhealthy"
	}
	if !e.Status.Healthy() {
		return fmt.Sprintf("service unhealthy: status %q", e.Status.Status)
	}
	return "service unhealthy: the answer model is not configured"
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON when jsonMode is set.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON writes err as a JSON object.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var (
		cmdErr  *CommandError
		valErr  *ValidationError
		cfgErr  *ConfigError
		failure *qa.Failure
	)
	switch {
	case errors.As(err, &failure):
		output["error_type"] = "request_failure"
		output["kind"] = failure.Kind.String()
		output["message"] = failure.Message
	case errors.As(err, &valErr):
		output["error_type"] = "validation_error"
		output["field"] = valErr.Field
		output["reason"] = valErr.Reason
	case errors.As(err, &cfgErr):
		output["error_type"] = "config_error"
		output["path"] = cfgErr.Path
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	default:
		output["error_type"] = "generic_error"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return ExitUsageError
	}

	var cfgErr *ConfigError
	var cfgVal config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &cfgVal) {
		return ExitConfigError
	}

	switch qa.KindOf(err) {
	case qa.KindTimeout:
		return ExitTimeoutError
	case qa.KindNetworkUnreachable:
		return ExitNetworkError
	}

	var unhealthy *UnhealthyError
	if errors.As(err, &unhealthy) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
