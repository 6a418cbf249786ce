// Package migrations holds the versioned schema for the local store.
// SQL migrations are embedded; data migrations register themselves with goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
