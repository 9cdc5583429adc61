package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okeefe/recite-api/internal/config"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/platform/postgres"
)

// newMigrateCmd builds the migrate subcommand with up, down, and status
// directions.
func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(postgres.MigrateUp)
		},
	})
	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(postgres.MigrateDown)
		},
	})
	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the status of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(postgres.MigrationStatus)
		},
	})

	return migrate
}

// withMigrationDB loads configuration, opens a database connection, runs the
// given migration function, and closes the connection.
func withMigrationDB(fn func(*sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	return fn(db)
}
