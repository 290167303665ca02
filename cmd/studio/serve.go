package main

import (
	"github.com/spf13/cobra"

	"github.com/avstrong/studio/internal/app"
)

func serveCmd() *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return a.Serve(withSeed)
			})
		},
	}

	cmd.Flags().BoolVar(&withSeed, "seed", false, "book a demo schedule starting today")

	return cmd
}
