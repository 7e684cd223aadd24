// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/ui/chat"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/ui/styles"
)

func newTUICommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the chat interface (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, app)
		},
	}
}

// runTUI runs the Bubble Tea chat until the user quits.
func runTUI(cmd *cobra.Command, app *App) error {
	if err := RequiresTTY("nutriwise tui"); err != nil {
		return err
	}

	ctx := cmd.Context()
	log := app.Logger.With().Str("component", "cli").Logger()

	client := app.newClient()
	ctrl := app.newController(client)
	cfg := app.Config

	// An explicit --endpoint pins the endpoint; only watch the file otherwise.
	var updates <-chan chat.ConfigChangedMsg
	if app.Endpoint == "" {
		if path, err := app.configPath(); err == nil {
			onChange, ch := chat.ConfigForwarder()
			w, err := config.NewWatcher(path, config.DefaultWatchDebounce, onChange)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
			} else {
				w.Start()
				defer w.Close()
				updates = ch
			}
		}
	}

	m := chat.New(chat.Options{
		Context:         ctx,
		Controller:      ctrl,
		Renderer:        app.newRenderer(GetTerminalWidth() - 8),
		Theme:           styles.NewTheme(),
		Suggestions:     cfg.UI.Suggestions,
		ShowSuggestions: cfg.UI.ShowSuggestions,
		RenderMarkdown:  cfg.UI.RenderMarkdown,
		ConfigUpdates:   updates,
		Logger:          &app.Logger,
	})

	log.Info().Str("endpoint", ctrl.Endpoint()).Msg("starting chat interface")
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return NewCommandError("tui", "run", "chat interface stopped", err)
	}
	return nil
}
