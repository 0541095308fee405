package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline: scrape, dedupe, rewrite",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.Application) error {
			summary, err := a.Pipeline.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(summary)
		})
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch and persist new articles from all sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.Application) error {
			summary, err := a.Pipeline.Scrape(ctx)
			if err != nil {
				return err
			}
			return printJSON(summary)
		})
	},
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate coverage of the same story",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.Application) error {
			removed, err := a.Pipeline.Dedupe(ctx)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"removed": removed})
		})
	},
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite relevant recent articles with a local angle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.Application) error {
			rewritten, skipped, err := a.Pipeline.RewriteArticles(ctx)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"rewritten": rewritten, "skipped": skipped})
		})
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(runCmd, scrapeCmd, dedupeCmd, rewriteCmd)
}
