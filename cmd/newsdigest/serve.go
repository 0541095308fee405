package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily scheduler until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemonApp(func(ctx context.Context, a *app.Application) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.StartScheduler(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
