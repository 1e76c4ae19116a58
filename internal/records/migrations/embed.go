// Package migrations embeds the SQL migrations for the backup records
// database so goose can run them without external files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
