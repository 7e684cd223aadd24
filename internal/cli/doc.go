// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the nutriwise command tree.
//
//	nutriwise                 open the chat interface (same as "tui")
//	nutriwise ask <question>  one question, one answer
//	nutriwise chat            line-based chat with history
//	nutriwise health          probe the answer service
//	nutriwise config ...      show, get, set, init the config file
//	nutriwise version         print version information
//
// Global flags --config, --endpoint, --log-level and --log-stderr apply to
// every command. Errors map to exit codes: usage 2, config 3, network 5,
// timeout 8, anything else 1.
package cli
