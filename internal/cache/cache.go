// Package cache persists per-function analysis results in a SQLite file so
// that unchanged functions are not re-analysed. Entries are keyed by the
// fingerprint computed by the analysis driver and hold the function's
// diagnostics as JSON.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yunilang/yuni/internal/diagnostics"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	key         TEXT PRIMARY KEY,
	function    TEXT NOT NULL,
	diagnostics TEXT NOT NULL,
	created_at  INTEGER NOT NULL
)`

// Store is a diagnostics cache backed by SQLite. It is safe for
// concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens or creates the cache database at path. ":memory:" gives a
// private in-memory cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	// a single connection keeps writers serialized and ":memory:" shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise cache %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with
func (s *Store) Path() string { return s.path }

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Lookup returns the cached diagnostics for key
func (s *Store) Lookup(key string) ([]diagnostics.Diagnostic, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, false, fmt.Errorf("cache is closed")
	}

	var raw string
	err := s.db.QueryRow(`SELECT diagnostics FROM results WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var ds []diagnostics.Diagnostic
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		// an unreadable entry is treated as a miss and overwritten later
		return nil, false, nil
	}
	return ds, true, nil
}

// Store records the diagnostics of function under key, replacing any
// previous entry
func (s *Store) Store(key, function string, ds []diagnostics.Diagnostic) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return fmt.Errorf("cache is closed")
	}
	if ds == nil {
		ds = []diagnostics.Diagnostic{}
	}
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics for %s: %w", function, err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO results (key, function, diagnostics, created_at) VALUES (?, ?, ?, ?)`,
		key, function, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

// Stats summarises the cache contents
type Stats struct {
	Entries   int
	Functions int
}

// Stats counts the stored entries and the distinct functions they cover
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	if s.db == nil {
		return st, fmt.Errorf("cache is closed")
	}
	err := s.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT function) FROM results`).Scan(&st.Entries, &st.Functions)
	if err != nil {
		return st, fmt.Errorf("cache stats failed: %w", err)
	}
	return st, nil
}

// Prune removes entries older than maxAge and returns how many were removed
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, fmt.Errorf("cache is closed")
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.Exec(`DELETE FROM results WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache prune failed: %w", err)
	}
	return res.RowsAffected()
}
