// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger shared by every component.
//
// The TUI owns the terminal, so logs go to ~/.nutriwise/nutriwise.log unless
// stderr is requested explicitly.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// Options adjust Setup beyond what the config file says.
type Options struct {
	// Level overrides cfg.Level when non-empty.
	Level string

	// Stderr writes human-readable output to stderr instead of the file.
	Stderr bool

	// Writer, when set, receives JSON lines instead of any file or stderr.
	Writer io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", name)
	}
}

// Setup builds the logger, installs it as the zerolog/log global and returns
// a Closer for the log file.
func Setup(cfg config.LogConfig, opts Options) (zerolog.Logger, io.Closer, error) {
	levelName := cfg.Level
	if opts.Level != "" {
		levelName = opts.Level
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.Stderr:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	case level == zerolog.Disabled:
		w = io.Discard
	default:
		path := cfg.File
		if path == "" {
			if path, err = config.DefaultLogPath(); err != nil {
				return zerolog.Nop(), nopCloser{}, err
			}
		}
		path = util.ExpandHome(path)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, errors.Wrapf(err, "open log file %s", path)
		}
		w, closer = f, f
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger, closer, nil
}
