package pgstorage

import "embed"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations holds the schema for Storage, for use with pg.Migrate.
var Migrations = mustSub(migrationFiles, "migrations")
