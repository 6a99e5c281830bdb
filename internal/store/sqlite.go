package store

import (
	"database/sql"
	"fmt"
	"sync"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store. Every Put of a new source appends a
// version; Get returns the newest one.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			locale TEXT NOT NULL,
			version INTEGER NOT NULL,
			source TEXT NOT NULL,
			digest TEXT NOT NULL,
			ts TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (locale, version)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Get retrieves the newest rule for a locale.
func (s *SQLite) Get(locale string) (*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Rule{Locale: locale}
	err := s.db.QueryRow(`
		SELECT source, digest FROM rules WHERE locale = ?
		ORDER BY version DESC LIMIT 1
	`, locale).Scan(&r.Source, &r.Digest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.Verify(); err != nil {
		return nil, err
	}
	return r, nil
}

// Put appends a new version unless the source is unchanged.
func (s *SQLite) Put(r Rule) error {
	r, err := seal(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		latest int
		source sql.NullString
	)
	err = tx.QueryRow(`
		SELECT version, source FROM rules WHERE locale = ?
		ORDER BY version DESC LIMIT 1
	`, r.Locale).Scan(&latest, &source)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if source.Valid && source.String == r.Source {
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO rules (locale, version, source, digest) VALUES (?, ?, ?, ?)
	`, r.Locale, latest+1, r.Source, r.Digest)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a locale and all its versions.
func (s *SQLite) Delete(locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM rules WHERE locale = ?", locale)
	return err
}

// List returns the stored locales.
func (s *SQLite) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT DISTINCT locale FROM rules ORDER BY locale")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locales []string
	for rows.Next() {
		var locale string
		if err := rows.Scan(&locale); err != nil {
			return nil, err
		}
		locales = append(locales, locale)
	}
	return locales, rows.Err()
}

// GetHistory returns versions newest first. A limit of 0 returns all.
func (s *SQLite) GetHistory(locale string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT version, source, digest, ts FROM rules WHERE locale = ?
		ORDER BY version DESC LIMIT ?
	`, locale, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []VersionEntry
	for rows.Next() {
		var e VersionEntry
		if err := rows.Scan(&e.Version, &e.Source, &e.Digest, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
