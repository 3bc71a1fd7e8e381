// Package migrations embeds the SQL schema for the payment outcome journal.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
