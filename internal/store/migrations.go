package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/hyperengineering/recipebox/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending migrations found in fsys using goose.
// A nil fsys selects the embedded migrations package.
func RunMigrations(db *sql.DB, fsys fs.FS) error {
	if fsys == nil {
		fsys = migrations.FS
	}

	// Disable goose's default logging to avoid stdout noise
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(fsys)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// schemaVersion returns the goose version recorded in db.
func schemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
