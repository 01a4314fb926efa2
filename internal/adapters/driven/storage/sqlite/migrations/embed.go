// Package migrations carries the knowledge base schema as embedded SQL.
package migrations

import "embed"

// FS holds the numbered *.up.sql files applied in order by the store.
//
//go:embed *.sql
var FS embed.FS
