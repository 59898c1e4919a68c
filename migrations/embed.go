// Package migrations holds the SQL schema applied by `clinic-server migrate`.
package migrations

import "embed"

// FS contains every numbered *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
