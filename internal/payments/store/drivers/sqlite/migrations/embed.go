// Package migrations embeds the SQL migration files so they compile into the
// binary and ApplyMigrations needs no filesystem access at runtime.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
