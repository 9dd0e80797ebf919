// Package migrations embeds the goose SQL migrations for the tourbook
// schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
