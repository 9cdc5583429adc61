package main

import (
	"context"

	"github.com/spf13/cobra"
)

// newServeCmd builds the serve subcommand, which runs the HTTP server until
// interrupted.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the recite HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}

			if err := app.startBackground(); err != nil {
				app.cleanup()
				return err
			}

			router := app.setupRouter()
			return app.startHTTPServer(context.Background(), router)
		},
	}
}
