// Package migrations embeds the SQL schema for the database-backed engines.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
