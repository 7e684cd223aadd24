// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/format"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/logging"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// annotationConfigOptional marks commands that still run with defaults when
// the config file is broken, so it can be inspected and repaired.
const annotationConfigOptional = "config-optional"

// =============================================================================
// APP STATE
// =============================================================================

// App holds the global flags and everything built from them before a
// command runs.
type App struct {
	ConfigPath string
	Endpoint   string
	LogLevel   string
	LogStderr  bool

	Config *config.Config
	Logger zerolog.Logger

	// configErr is a load failure tolerated by a config-optional command.
	configErr error
	closer    io.Closer
}

// setup loads config and logging. It runs as the root PersistentPreRunE.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		if !isConfigOptional(cmd) {
			return err
		}
		a.configErr = err
		cfg = config.Default()
	}

	if a.Endpoint != "" {
		if err := qa.ValidateEndpoint(a.Endpoint); err != nil {
			return NewValidationErrorWithExample("endpoint", a.Endpoint, err.Error(),
				"--endpoint http://127.0.0.1:5000/ask")
		}
		cfg.Endpoint.URL = a.Endpoint
	}
	if a.LogLevel != "" {
		if _, err := logging.ParseLevel(a.LogLevel); err != nil {
			return NewValidationError("log-level", a.LogLevel, "must be one of debug, info, warn, error, disabled")
		}
	}
	a.Config = cfg

	logger, closer, err := logging.Setup(cfg.Log, logging.Options{Level: a.LogLevel, Stderr: a.LogStderr})
	if err != nil {
		return &ConfigError{Path: cfg.Log.File, Err: err}
	}
	a.Logger = logger
	a.closer = closer

	a.Logger.Debug().
		Str("command", cmd.CommandPath()).
		Str("endpoint", cfg.Endpoint.URL).
		Msg("starting")
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.ConfigPath != "" {
		path := util.ExpandHome(a.ConfigPath)
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		path, _ := config.ResolvePath()
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// configPath returns the file the config commands and the watcher use.
func (a *App) configPath() (string, error) {
	if a.ConfigPath != "" {
		return util.ExpandHome(a.ConfigPath), nil
	}
	return config.ResolvePath()
}

// Close releases the log file.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func isConfigOptional(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationConfigOptional] == "true" {
			return true
		}
	}
	return false
}

// =============================================================================
// FACTORIES
// =============================================================================

// newClient builds the answer-service client from the loaded config.
func (a *App) newClient() *qa.Client {
	return qa.NewClientWithConfig(&qa.ClientConfig{
		Endpoint:  a.Config.Endpoint.URL,
		HealthURL: a.Config.Endpoint.HealthURL,
		Timeout:   a.Config.Client.Timeout(),
		UserAgent: qa.DefaultUserAgent + "/" + Version,
		Logger:    &a.Logger,
	})
}

// newController builds a controller over client with the configured limits.
func (a *App) newController(client controller.Asker) *controller.Controller {
	return controller.New(client, controller.Options{
		MaxRetries:       a.Config.Client.MaxRetries,
		RetryDelay:       a.Config.Client.RetryDelay(),
		MaxMessageLength: a.Config.Client.MaxMessageLength,
		Logger:           &a.Logger,
	})
}

// newRenderer returns the answer renderer for the configured theme, or a
// plain passthrough when markdown rendering is off.
func (a *App) newRenderer(width int) *format.Renderer {
	if !a.Config.UI.RenderMarkdown {
		return format.NewRenderer(format.StylePlain, width)
	}
	return format.NewRenderer(MarkdownStyle(a.Config.UI.Theme), width)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the nutriwise command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "nutriwise",
		Short: "NutriWise AI nutrition assistant",
		Long: `NutriWise is a terminal client for the NutriWise AI answer service.

Run without a command to open the chat interface.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.ConfigPath, "config", "", "config file (default ~/.nutriwise/config.toml)")
	flags.StringVar(&app.Endpoint, "endpoint", "", "answer service URL (overrides config)")
	flags.StringVar(&app.LogLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	flags.BoolVar(&app.LogStderr, "log-stderr", false, "log to stderr instead of the log file")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return NewValidationError("flag", "", err.Error())
	})

	root.AddCommand(
		newTUICommand(app),
		newAskCommand(app),
		newChatCommand(app),
		newHealthCommand(app),
		newConfigCommand(app),
		newVersionCommand(),
	)
	return root
}

// silentError carries an exit code for an error the command already
// reported on stdout.
type silentError struct {
	err error
}

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

// Run executes the command line args and returns the exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &App{}
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return ExitSuccess
	}

	var silent *silentError
	if !errors.As(err, &silent) {
		DisplayError(stderr, err, false)
	}
	return GetExitCode(err)
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute() int {
	return Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// usageArgs turns cobra's argument errors into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return NewValidationError("arguments", "", err.Error())
		}
		return nil
	}
}
