package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// newRootCmd builds the recite command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recite",
		Short:         "Spaced-repetition scheduling service",
		Long:          "recite serves the deck, card, and study-session API backed by a spaced-repetition scheduler.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// newVersionCmd builds the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the recite version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "recite", version)
		},
	}
}
