// Package migrations embeds the SQLite schema files applied by db.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
