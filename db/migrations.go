// Package db ships the Postgres schema as embedded migrations.
package db

import "embed"

// Migrations holds the forward (*.up.sql) and rollback (*.down.sql) scripts.
//
//go:embed migrations/*.sql
var Migrations embed.FS
