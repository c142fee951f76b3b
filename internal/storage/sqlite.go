package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// DB wraps a database/sql connection to one of the supported dialects.
type DB struct {
	conn    *sql.DB
	dialect dialect
	path    string // SQLite file; empty for networked backends
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.path = dbPath
	return db, nil
}

// Open connects to driver ("sqlite", "postgres" or "mysql") with dsn and
// applies migrations.
func Open(driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if d.name == "mysql" {
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d.name == "sqlite" {
		// SQLite only supports one writer; limit to single connection to prevent SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, dialect: d}
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

// Path returns the SQLite file path, or "" for networked backends.
func (db *DB) Path() string {
	return db.path
}

// Driver returns the dialect name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// DataVersion returns SQLite's data_version for the store's connection.
// The value moves only when another connection commits to the same file,
// so it tells external writes apart from our own.
func (db *DB) DataVersion(ctx context.Context) (int64, error) {
	if db.dialect.name != "sqlite" {
		return 0, fmt.Errorf("data version: unsupported on %s", db.dialect.name)
	}
	var v int64
	if err := db.conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("data version: %w", err)
	}
	return v, nil
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	d := db.dialect
	tables := []string{
		`CREATE TABLE IF NOT EXISTS workspaces (
			id {id} PRIMARY KEY,
			name {text} NOT NULL,
			created_at {time} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id {id} PRIMARY KEY,
			name {text} NOT NULL,
			workspace_id {id} NOT NULL DEFAULT '',
			parent_id {id} NOT NULL DEFAULT '',
			created_at {time} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id {id} PRIMARY KEY,
			title {text} NOT NULL,
			workspace_id {id} NOT NULL DEFAULT '',
			folder_id {id} NOT NULL DEFAULT '',
			created_at {time} NOT NULL,
			updated_at {time} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id {id} PRIMARY KEY,
			page_id {id} NOT NULL,
			type {text} NOT NULL,
			content {long} NOT NULL,
			sort_order {int} NOT NULL DEFAULT 0,
			created_at {time} NOT NULL,
			heading_level {int} NULL,
			checked {bool} NULL,
			expanded {bool} NULL,
			callout_icon {text} NULL,
			table_data {long} NULL
		)`,
	}
	for _, m := range tables {
		if _, err := db.conn.Exec(d.expand(m)); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}

	indexes := [][3]string{
		{"idx_folders_workspace", "folders", "workspace_id"},
		{"idx_folders_parent", "folders", "parent_id"},
		{"idx_pages_workspace", "pages", "workspace_id"},
		{"idx_pages_folder", "pages", "folder_id"},
		{"idx_blocks_page", "blocks", "page_id"},
	}
	for _, ix := range indexes {
		if _, err := db.conn.Exec(d.createIndex(ix[0], ix[1], ix[2])); err != nil {
			if d.isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("create index %s: %w", ix[0], err)
		}
	}

	return nil
}
