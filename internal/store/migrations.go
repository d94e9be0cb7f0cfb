package store

import (
	"database/sql"
	"fmt"

	"github.com/hyperengineering/fitplan/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending database migrations using goose.
// dialect is DialectSQLite or DialectPostgres.
func RunMigrations(db *sql.DB, dialect string) error {
	// Disable goose's default logging to avoid stdout noise
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
