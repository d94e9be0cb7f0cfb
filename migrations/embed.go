// Package migrations holds the goose SQL migrations for the session database.
package migrations

import "embed"

// FS contains every migration file. The SQL is portable across SQLite and Postgres.
//
//go:embed *.sql
var FS embed.FS
