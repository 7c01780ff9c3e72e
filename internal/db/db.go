// Package db persists raw trace points and pipeline runs in sqlite.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsEmbed embed.FS

// getMigrationsFS returns the embedded migrations filesystem.
func getMigrationsFS() (fs.FS, error) {
	return migrationsEmbed, nil
}

type DB struct {
	*sql.DB
}

// OpenDB opens the sqlite database at path without touching the schema.
// Used by the migrate CLI, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	return &DB{sqlDB}, nil
}

// NewDB opens the database and brings the schema up to date by applying
// all pending embedded migrations.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		database.Close()
		return nil, err
	}
	if err := database.MigrateUp(migrationsFS); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}
