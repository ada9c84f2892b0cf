package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subtrans/internal/language"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the translation cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached translation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openCache(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache:    %s\n", stats.Path)
			fmt.Fprintf(out, "Enabled:  %s\n", yesNo(cfg.Cache.Enabled))
			fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
			fmt.Fprintf(out, "Hits:     %d\n", stats.Hits)
			if len(stats.Pairs) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(stats.Pairs))
			for _, p := range stats.Pairs {
				rows = append(rows, []string{p.Model, language.DisplayName(p.From), language.DisplayName(p.To), strconv.FormatInt(p.Entries, 10)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Model", "From", "To", "Entries"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openCache(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached translations\n", removed)
			return nil
		},
	}
}
