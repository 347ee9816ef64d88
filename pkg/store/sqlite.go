// Package store persists a plan to a SQLite project file and handles JSON
// export/import of the same document shape.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite project-file connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the project file at dbPath.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; limit to a single connection to
	// prevent SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS walls (
			id TEXT PRIMARY KEY,
			start_x REAL NOT NULL,
			start_y REAL NOT NULL,
			end_x REAL NOT NULL,
			end_y REAL NOT NULL,
			height REAL NOT NULL,
			wall_type TEXT NOT NULL DEFAULT '',
			structure TEXT NOT NULL DEFAULT '',
			u_value REAL,
			photos_json TEXT NOT NULL DEFAULT '[]',
			constraints_json TEXT NOT NULL DEFAULT '[]',
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS openings (
			id TEXT PRIMARY KEY,
			wall_id TEXT NOT NULL REFERENCES walls(id),
			kind TEXT NOT NULL DEFAULT 'window',
			position REAL NOT NULL DEFAULT 0.5,
			width REAL NOT NULL DEFAULT 0,
			height REAL NOT NULL DEFAULT 0,
			sill REAL NOT NULL DEFAULT 0,
			u_value REAL NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			wall_ids_json TEXT NOT NULL DEFAULT '[]',
			ceiling_height REAL NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_openings_wall ON openings(wall_id)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}

	return nil
}
