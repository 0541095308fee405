package main

import (
	"context"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show article counts, sources, and last-run state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.Application) error {
			return printJSON(a.Queries.Stats(ctx))
		})
	},
}

var clearRewritesCmd = &cobra.Command{
	Use:   "clear-rewrites",
	Short: "Delete all rewritten articles so the next run reprocesses them",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeFiles, _ := cmd.Flags().GetBool("files")

		return withApp(func(ctx context.Context, a *app.Application) error {
			deleted, err := a.Maintenance.ClearRewrites(ctx, includeFiles)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"deleted": deleted})
		})
	},
}

func init() {
	clearRewritesCmd.Flags().Bool("files", false, "also remove backup JSON files")

	rootCmd.AddCommand(statsCmd, clearRewritesCmd)
}
