// Package migrations holds the goose SQL migrations for the care-line store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
