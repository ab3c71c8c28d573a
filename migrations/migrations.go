// Package migrations embeds the watcher's schema migration files and applies
// them with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// versionTable names the goose bookkeeping table. Scoping it to the watcher
// keeps the schema history separate when the database file is shared with
// other tools.
const versionTable = "watcher_schema_version"

// Configure points goose at the embedded migration files and the watcher's
// version table. Callers driving goose directly must call it first.
func Configure() error {
	goose.SetBaseFS(fs)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// Run applies all pending migrations to the given database.
func Run(db *sql.DB) error {
	if err := Configure(); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
