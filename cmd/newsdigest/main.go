// Package main is the entry point for the newsdigest CLI.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
	"newsdigest/internal/config"
	"newsdigest/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "newsdigest",
	Short: "Hyperlocal news scraping, rewriting, and digest generation",
	Long: `newsdigest collects news from RSS feeds and NewsAPI, removes duplicate
coverage, rewrites stories with a local angle for the configured region, and
assembles weekly digests.

Each pipeline stage is a subcommand (scrape, dedupe, rewrite, digest); run
executes the full batch, and serve keeps a daily scheduler running.`,
	SilenceUsage: true,
}

// withApp builds the application from config, runs fn, and tears down.
func withApp(fn func(ctx context.Context, a *app.Application) error) error {
	return runApp("", fn)
}

// withDaemonApp is withApp for long-running commands: it falls back to the
// JSON log handler when no format is configured.
func withDaemonApp(fn func(ctx context.Context, a *app.Application) error) error {
	return runApp("json", fn)
}

func runApp(fallbackLogFormat string, fn func(ctx context.Context, a *app.Application) error) error {
	cfg := config.Load()
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = fallbackLogFormat
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer a.Close(ctx)

	return fn(ctx, a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
