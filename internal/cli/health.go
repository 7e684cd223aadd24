// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// ProbeQuestion is sent by health --probe.
const ProbeQuestion = "What are some healthy breakfast options?"

type healthOptions struct {
	JSON  bool
	Probe bool
}

// healthReport is the --json output.
type healthReport struct {
	Endpoint         string `json:"endpoint"`
	HealthURL        string `json:"health_url"`
	Status           string `json:"status,omitempty"`
	GeminiConfigured bool   `json:"gemini_configured"`
	APIKeyPresent    bool   `json:"api_key_present"`
	Ready            bool   `json:"ready"`
	Error            string `json:"error,omitempty"`
	ProbeAnswer      string `json:"probe_answer,omitempty"`
	ProbeLatencyMS   int64  `json:"probe_latency_ms,omitempty"`
}

func newHealthCommand(app *App) *cobra.Command {
	opts := &healthOptions{}
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the answer service is up and configured",
		Long: `Check that the answer service is up and configured.

Exits non-zero when the service cannot be reached, reports an unhealthy
status, or has no answer model configured. With --probe a sample question
is also sent.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealth(cmd, app, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.Probe, "probe", false, "also send a sample question")
	return cmd
}

func runHealth(cmd *cobra.Command, app *App, opts *healthOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	client := app.newClient()

	report := healthReport{Endpoint: client.Endpoint(), HealthURL: client.HealthURL()}

	status, err := client.CheckHealth(ctx)
	if err == nil {
		report.Status = status.Status
		report.GeminiConfigured = status.GeminiConfigured
		report.APIKeyPresent = status.APIKeyPresent
		report.Ready = status.Ready()
		if !report.Ready {
			err = &UnhealthyError{Status: status}
		}
	}

	var answer *qa.Answer
	if err == nil && opts.Probe {
		answer, err = client.Ask(ctx, ProbeQuestion)
		if err == nil {
			report.ProbeAnswer = answer.Text
			report.ProbeLatencyMS = answer.Latency.Milliseconds()
		}
	}
	if err != nil {
		report.Error = err.Error()
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
		if err != nil {
			return &silentError{err: err}
		}
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render("NutriWise Health"))
	fmt.Fprintln(out, RenderLabel("Endpoint", report.Endpoint))
	fmt.Fprintln(out, RenderLabel("Health URL", report.HealthURL))
	if status != nil {
		fmt.Fprintln(out, RenderLabel("Status", report.Status))
		fmt.Fprintln(out, RenderLabel("Model configured", yesNo(report.GeminiConfigured)))
		fmt.Fprintln(out, RenderLabel("API key present", yesNo(report.APIKeyPresent)))
	}
	if answer != nil {
		fmt.Fprintln(out, RenderLabel("Probe latency", answer.Latency.Round(time.Millisecond).String()))
		fmt.Fprintln(out, RenderLabel("Probe answer", util.TruncateWidth(util.FirstLine(answer.Text), 60)))
	}
	fmt.Fprintln(out, RenderSeparator(40))
	fmt.Fprintf(out, "%s %s\n", RenderStatus(err == nil), readiness(err))

	if err != nil {
		return &silentError{err: err}
	}
	return nil
}

func readiness(err error) string {
	if err == nil {
		return "ready"
	}
	if kind := qa.KindOf(err); kind != "" {
		return kind.Message()
	}
	return err.Error()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
