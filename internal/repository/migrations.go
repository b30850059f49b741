// Package repository implements the domain repositories on PostgreSQL with GORM.
package repository

import "embed"

// Migrations holds the SQL schema applied by database.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"
