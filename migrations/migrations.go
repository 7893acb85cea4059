// Package migrations embeds the versioned SQL schema files so the binary can
// migrate a database without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory, named
// {version}_{description}.{up|down}.sql as golang-migrate expects.
//
//go:embed *.sql
var FS embed.FS
