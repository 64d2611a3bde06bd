// Package migrations applies the embedded ledger schema.
package migrations

import "embed"

// PostgresFS holds the PostgreSQL migrations, applied in lexical file order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS
