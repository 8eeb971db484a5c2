package cache

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_cache (
	k          TEXT PRIMARY KEY,
	v          TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists session snapshots in a single-table SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// ensures the cache schema exists. Parent directories are created.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an existing database handle, ensuring the cache
// schema exists. The caller keeps ownership of db; Close on the store
// closes it.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the stored value. Any database failure reports a miss.
func (s *SQLiteStore) Get(key string) (string, bool) {
	var val string
	err := s.db.QueryRow("SELECT v FROM session_cache WHERE k = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

// Set upserts value under key. Failures are logged and swallowed.
func (s *SQLiteStore) Set(key, value string) {
	_, err := s.db.Exec(
		`INSERT INTO session_cache (k, v, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		log.Printf("panelAuth: sqlite cache write failed: %v", err)
	}
}

// Remove deletes key. Failures are logged and swallowed.
func (s *SQLiteStore) Remove(key string) {
	if _, err := s.db.Exec("DELETE FROM session_cache WHERE k = ?", key); err != nil {
		log.Printf("panelAuth: sqlite cache delete failed: %v", err)
	}
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
