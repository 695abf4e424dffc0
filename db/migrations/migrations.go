// Package migrations embeds the goose migration files for the ledger
// database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
