package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists loader payloads across collection runs. Entries carry
// an absolute expiry; expired rows are ignored on read and removed by Purge.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLiteStore opens (or creates) a persistent store at dbPath. Use
// ":memory:" for tests.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put stores payload under key, replacing any previous entry, with an expiry
// ttl from now.
func (s *SQLiteStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires := time.Now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cache_entries (key, payload, expires_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at",
		key, payload, expires,
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Get returns the payload for key, or ok=false when absent or expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM cache_entries WHERE key = ? AND expires_at > ?",
		key, time.Now().Unix(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	return payload, true, nil
}

// Purge removes all expired rows.
func (s *SQLiteStore) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return fmt.Errorf("purge cache entries: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
