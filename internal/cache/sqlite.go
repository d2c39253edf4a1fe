package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// SQLiteFile is the database file name inside the cache directory.
const SQLiteFile = "atbuilder-cache.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS builders (
	key        TEXT PRIMARY KEY,
	entry      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// SQLiteCache implements Cache on a SQLite database. Entries are stored as msgpack blobs next to
// their expiry in Unix nanoseconds, zero meaning never.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates the cache database in dir. An empty dir opens an in-memory
// database.
func NewSQLiteCache(dir string) (*SQLiteCache, error) {
	dsn := ":memory:"
	if dir != "" {
		if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		dsn = filepath.Join(dir, SQLiteFile)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get retrieves a value from the cache.
func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT entry FROM builders WHERE key = ?`, key).Scan(&blob)
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := msgpack.Unmarshal(blob, &entry); err != nil {
		return nil, false
	}
	if entry.IsExpired() {
		s.Delete(ctx, key)
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the given TTL.
func (s *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	entry := newEntry(value, ttl)
	blob, err := msgpack.Marshal(entry)
	if err != nil {
		return
	}
	var expires int64
	if !entry.ExpiresAt.IsZero() {
		expires = entry.ExpiresAt.UnixNano()
	}
	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO builders (key, entry, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET entry = excluded.entry, expires_at = excluded.expires_at`,
		key, blob, expires)
}

// Delete removes a value from the cache.
func (s *SQLiteCache) Delete(ctx context.Context, key string) {
	_, _ = s.db.ExecContext(ctx, `DELETE FROM builders WHERE key = ?`, key)
}

// Clear removes all values from the cache.
func (s *SQLiteCache) Clear(ctx context.Context) {
	_, _ = s.db.ExecContext(ctx, `DELETE FROM builders`)
}

// Prune removes expired entries.
func (s *SQLiteCache) Prune(ctx context.Context) int {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM builders WHERE expires_at > 0 AND expires_at <= ?`, time.Now().UnixNano())
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// Len returns the number of stored entries, including expired ones.
func (s *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM builders`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

var (
	_ Cache  = (*SQLiteCache)(nil)
	_ Pruner = (*SQLiteCache)(nil)
)
