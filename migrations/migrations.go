// Package migrations embeds the SQL schema migrations so binaries and tests
// run the same files golang-migrate reads from disk.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
