// Package migrations embeds the dispatch journal schema into the binary.
package migrations

import "embed"

// FS holds the *.sql migration files at its root, ready for
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
