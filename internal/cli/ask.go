// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/format"
)

// askOptions are the flags of the ask command.
type askOptions struct {
	HTML  bool
	JSON  bool
	Retry bool
}

// askResult is the --json output.
type askResult struct {
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Attempts int    `json:"attempts"`
}

func newAskCommand(app *App) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question and print the answer",
		Long: `Ask one question and print the answer.

Use "-" as the question to read it from stdin.`,
		Example: `  nutriwise ask "What are good sources of iron?"
  nutriwise ask --html "List three high-fibre foods"
  echo "Is ugali healthy?" | nutriwise ask -`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, app, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "print the answer as HTML markup")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.Retry, "retry", false, "retry automatically while retries remain")
	return cmd
}

func runAsk(cmd *cobra.Command, app *App, opts *askOptions, args []string) error {
	question, err := readQuestion(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	ctrl := app.newController(app.newClient())

	outcome, err := ctrl.Submit(ctx, question)
	if err != nil {
		return askInputError(err)
	}
	attempts := 1
	for !outcome.OK() && outcome.RetryOffered && opts.Retry {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s Retrying (%d/%d)...\n",
			WarningStyle.Render("[RETRY]"), outcome.Notice, ctrl.RetryCount()+1, ctrl.MaxRetries())
		if outcome, err = ctrl.Retry(ctx, outcome.OriginalText); err != nil {
			return NewCommandError("ask", "retry", "retry rejected", err)
		}
		attempts++
	}

	if opts.JSON {
		res := askResult{Attempts: attempts}
		if outcome.OK() {
			res.Answer = outcome.Answer.Text
		} else {
			res.Error = outcome.Notice
			res.Kind = outcome.Failure.Kind.String()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return pkgerrors.Wrap(err, "write result")
		}
		if !outcome.OK() {
			return &silentError{err: outcome.Failure}
		}
		return nil
	}

	if !outcome.OK() {
		return &CommandError{Command: "ask", Action: "send", Reason: outcome.Notice, Err: outcome.Failure}
	}

	text := outcome.Answer.Text
	if opts.HTML {
		text = format.Markup(text)
	} else {
		text = app.newRenderer(GetTerminalWidth()).Render(text)
	}
	fmt.Fprintln(out, text)
	return nil
}

// readQuestion joins args, or reads stdin when the only arg is "-".
func readQuestion(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, 64*1024))
		if err != nil {
			return "", pkgerrors.Wrap(err, "read question from stdin")
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func askInputError(err error) error {
	var tooLong *controller.InputTooLongError
	switch {
	case errors.As(err, &tooLong):
		return NewValidationError("question", "", tooLong.Error())
	case errors.Is(err, controller.ErrEmptyInput):
		return NewValidationErrorWithExample("question", "", "must not be empty",
			`nutriwise ask "What are good sources of iron?"`)
	default:
		return NewCommandError("ask", "send", "request rejected", err)
	}
}
