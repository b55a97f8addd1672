// Package migrations embeds the versioned PostgreSQL schema applied by
// cmd/migrate and by the integration test harness.
package migrations

import "embed"

// FS holds the golang-migrate up/down scripts.
//
//go:embed *.sql
var FS embed.FS
