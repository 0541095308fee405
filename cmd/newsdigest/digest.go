package main

import (
	"context"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
	"newsdigest/internal/digest"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build and persist a digest from rewritten articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		all, _ := cmd.Flags().GetBool("all-categories")

		return withApp(func(ctx context.Context, a *app.Application) error {
			scopes := []string{scope}
			if all {
				scopes = scopes[:0]
				for _, c := range digest.Categories {
					scopes = append(scopes, c.Name)
				}
			}

			for _, s := range scopes {
				d, err := a.Digest.Build(ctx, s)
				if err != nil {
					return err
				}
				if err := printJSON(d); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	digestCmd.Flags().String("scope", digest.ScopeAll, "digest scope: all or a category name")
	digestCmd.Flags().Bool("all-categories", false, "build one digest per category")

	rootCmd.AddCommand(digestCmd)
}
