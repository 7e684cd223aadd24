// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for NutriWise.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: root configuration
//   - EndpointConfig: answer service and health probe URLs
//   - ClientConfig: timeout, retry and message length limits
//   - UIConfig: markdown theme and suggestions
//   - LogConfig: log level and file
//   - Watcher: fsnotify-based reloader
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NUTRIWISE_*)
//   - ~/.nutriwise/config.toml
//   - ~/.nutriwise/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v (using defaults)", err)
//	}
//	timeout := cfg.Client.Timeout()
package config
