// Package migrations embeds the SQLite schema applied by goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
