// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show or edit the configuration",
		Annotations: map[string]string{annotationConfigOptional: "true"},
		Args:        usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, app)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigShow(cmd, app)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one value, e.g. client.max_retries",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := app.Config.Get(args[0])
				if err != nil {
					return keyError(args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set one value in the config file",
			Args:  usageArgs(cobra.ExactArgs(2)),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, app, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every config key",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, k := range config.GetAllKeys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := app.configPath()
				if err != nil {
					return &ConfigError{Err: err}
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		newConfigInitCommand(app),
	)
	return cmd
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewValidationErrorWithExample("config", path, "file already exists", "nutriwise config init --force")
			}
			if err := config.SaveTo(config.Default(), path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runConfigShow(cmd *cobra.Command, app *App) error {
	out := cmd.OutOrStdout()
	if app.configErr != nil {
		fmt.Fprintf(out, "%s %v\n%s\n", WarningStyle.Render("[WARN]"), app.configErr,
			DimStyle.Render("Showing defaults instead."))
	}
	fmt.Fprintln(out, app.Config.String())
	return nil
}

// runConfigSet edits the file on disk rather than the effective config, so
// command-line flags are not persisted.
func runConfigSet(cmd *cobra.Command, app *App, key, value string) error {
	path, err := app.configPath()
	if err != nil {
		return &ConfigError{Err: err}
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if cfg, err = config.LoadFromPath(path); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return keyError(key, err)
	}
	if err := cfg.Validate(); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return &ConfigError{Path: path, Err: errors.Wrap(err, "save")}
	}

	app.Logger.Info().Str("key", key).Str("path", path).Msg("config updated")
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func keyError(key string, err error) error {
	return NewValidationErrorWithExample("key", key, err.Error(),
		"valid keys: "+strings.Join(config.GetAllKeys(), ", "))
}

func formatValue(v interface{}) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ", ")
	}
	return fmt.Sprint(v)
}
