// Package storage provides the SQLite-backed persisted cache store.
// The database lives at <root>/.depmap/depmap.db and survives restarts, so
// longer-lived cache categories (listings, file content) stay warm across
// processes.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"depmap/internal/logging"
)

// DB wraps the SQLite connection used by persisted cache stores.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Open opens or creates the depmap database under root. The schema is
// bootstrapped on first open.
func Open(root string, logger *logging.Logger) (*DB, error) {
	dir := filepath.Join(root, ".depmap")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create .depmap directory: %w", err)
	}

	path := filepath.Join(dir, "depmap.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}
	if err := db.createSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("Opened cache database", map[string]interface{}{
		"path": path,
	})
	return db, nil
}

func (db *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		category   TEXT    NOT NULL,
		key        TEXT    NOT NULL,
		value      BLOB    NOT NULL,
		stored_at  INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (category, key)
	);
	CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at
		ON cache_entries(category, expires_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
