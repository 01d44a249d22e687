// Package migrations registers the Postgres schema with bun/migrate.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is filled by the numbered files of this package.
var Migrations = migrate.NewMigrations()
