// Package database provides the SQLite connection behind the detector's
// local dispatch journal.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Versioned schema migrations read from any fs.FS
//   - Lifecycle and health checks
//
// Files are created with 0600 permissions and all statements use
// parameterised queries.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or defaulted, and
// each .up.sql ships with a matching .down.sql.
package database
