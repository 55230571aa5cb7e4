// Package store database for the café's gallery, menu, reservations,
// messages, site content, settings and admin sessions
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Database struct {
	db  *sql.DB
	now func() time.Time
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db, now: time.Now}

	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return database, nil
}

func (d *Database) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS gallery_photos (
		id         TEXT NOT NULL PRIMARY KEY,
		url        TEXT NOT NULL,
		alt        TEXT NOT NULL,
		source     TEXT NOT NULL,
		object_key TEXT NOT NULL DEFAULT '',
		"order"    INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_gallery_photos_order ON gallery_photos("order");
	CREATE UNIQUE INDEX IF NOT EXISTS idx_gallery_photos_url ON gallery_photos(url);
	CREATE TABLE IF NOT EXISTS menu_items (
		id          TEXT NOT NULL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL,
		price       REAL NOT NULL,
		category    TEXT NOT NULL,
		image_url   TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS reservations (
		id           TEXT NOT NULL PRIMARY KEY,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		phone        TEXT NOT NULL,
		date         TEXT NOT NULL,
		time         TEXT NOT NULL,
		guests       INTEGER NOT NULL,
		status       TEXT NOT NULL,
		submitted_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status, date, time);
	CREATE TABLE IF NOT EXISTS contact_messages (
		id           TEXT NOT NULL PRIMARY KEY,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		message      TEXT NOT NULL,
		read         INTEGER NOT NULL DEFAULT 0,
		submitted_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS site_content (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		body      TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS app_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		rotation_interval_ms INTEGER NOT NULL,
		fade_ms              INTEGER NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS schedule (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		enabled INTEGER NOT NULL,
		start   TEXT NOT NULL,
		end     TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT NOT NULL PRIMARY KEY,
		email      TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`
	_, err := d.db.Exec(query)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func checkAffected(result sql.Result, what string, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
