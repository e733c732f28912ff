package database

import "errors"

var (
	// ErrNoPath is returned by Open when no database path is configured.
	ErrNoPath = errors.New("database: path is required")

	// ErrMissingDown is returned by MigrateDown when the latest migration
	// ships without a .down.sql file.
	ErrMissingDown = errors.New("database: migration has no down SQL")

	// ErrUnknownMigration is returned by MigrateDown when the latest applied
	// version is not present in the supplied filesystem.
	ErrUnknownMigration = errors.New("database: applied migration not found")
)
