// Package migrations embeds the chatr.db schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
