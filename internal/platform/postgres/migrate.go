package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/okeefe/recite-api/internal/platform/postgres/migrations"
)

// migrationTableName is the table goose uses to track applied migrations.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages
// to slog.Error. Unlike the standard Fatalf behavior, this does NOT call os.Exit,
// so the caller decides how to handle the failure.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// MigrateUp applies all pending migrations from the embedded filesystem.
func MigrateUp(db *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(db *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.Down(db, "."); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus reports the status of all known migrations through the
// configured goose logger.
func MigrationStatus(db *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.Status(db, "."); err != nil {
		return fmt.Errorf("failed to report migration status: %w", err)
	}
	return nil
}

// prepareGoose points goose at the embedded migration files and configures
// its dialect, tracking table and logger.
func prepareGoose() error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}
