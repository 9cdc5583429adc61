// Package migrations embeds the SQL migration files applied by goose.
package migrations

import "embed"

// FS holds the embedded migration files so the binary can migrate the schema
// without access to the source tree.
//
//go:embed *.sql
var FS embed.FS
