// Package migrations embeds the SQL schema migrations of the SQLite store.
package migrations

import "embed"

// FS contains the migration files, named <version>_<name>.{up,down}.sql.
//
//go:embed *.sql
var FS embed.FS
