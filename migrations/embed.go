// Package migrations embeds the schema migrations of every SQL backend.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
