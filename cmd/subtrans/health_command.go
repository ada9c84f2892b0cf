package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subtrans/internal/services"
	"subtrans/internal/services/ollama"
)

type healthReport struct {
	BaseURL string         `json:"base_url"`
	Version string         `json:"version"`
	Model   string         `json:"model"`
	Ready   bool           `json:"ready"`
	Models  []ollama.Model `json:"models"`
	Cache   string         `json:"cache"`
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that Ollama is reachable and the configured model is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := ctx.ollamaClient(cfg)
			out := cmd.OutOrStdout()
			report := healthReport{
				BaseURL: client.BaseURL(),
				Model:   cfg.ActiveModel(),
				Cache:   cacheSummary(cfg.Cache.Enabled, cfg.Cache.Path),
			}

			version, err := client.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Ollama:  unreachable at %s\n", client.BaseURL())
				return err
			}
			report.Version = version

			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
			report.Models = models
			healthErr := client.HealthCheck(cmd.Context(), report.Model)
			report.Ready = healthErr == nil
			if healthErr != nil && !errors.Is(healthErr, services.ErrNotFound) {
				return healthErr
			}

			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return healthErr
			}

			fmt.Fprintf(out, "Ollama:  %s (version %s)\n", report.BaseURL, report.Version)
			if report.Ready {
				fmt.Fprintf(out, "Model:   %s installed\n", report.Model)
			} else {
				fmt.Fprintf(out, "Model:   %s missing (install it with `ollama pull %s`)\n", report.Model, report.Model)
			}
			fmt.Fprintf(out, "Cache:   %s\n", report.Cache)
			if len(models) > 0 {
				fmt.Fprintln(out, renderModels(models, report.Model))
			}
			return healthErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderModels(models []ollama.Model, active string) string {
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		marker := ""
		if m.Name == active || strings.TrimSuffix(m.Name, ":latest") == active {
			marker = "*"
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = humanize.Time(m.ModifiedAt)
		}
		rows = append(rows, []string{marker, m.Name, humanize.IBytes(uint64(max(m.Size, 0))), modified})
	}
	return renderTable(
		[]string{"", "Installed model", "Size", "Modified"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func cacheSummary(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return path
}
