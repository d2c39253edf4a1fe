// Package cache stores rendered builder sources keyed by a digest of everything they were generated
// from, so unchanged records can skip synthesis between rounds.
//
// Three backends are provided: an in-process map, a directory of msgpack files and a SQLite
// database.
//
//	c := cache.NewMemoryCache()
//	c.Set(ctx, key, source, time.Hour)
//	if src, ok := c.Get(ctx, key); ok {
//	    // reuse src
//	}
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache maps keys to rendered sources. Implementations are safe for concurrent use and treat
// storage failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// Pruner is implemented by caches that can drop expired entries in bulk.
type Pruner interface {
	// Prune removes expired entries and returns how many were removed.
	Prune(ctx context.Context) int
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the cache for backend. dir is the directory of the file and sqlite backends. The
// none backend yields a nil Cache.
func Open(backend, dir string) (Cache, error) {
	switch backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendFile:
		return NewFileCache(dir)
	case BackendSQLite:
		return NewSQLiteCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// ComputeKey generates a cache key from content using SHA-256.
func ComputeKey(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:16]) // use first 128 bits
}

// ComputeKeyWithPrefix generates a cache key with a prefix.
func ComputeKeyWithPrefix(prefix string, content []byte) string {
	return fmt.Sprintf("%s:%s", prefix, ComputeKey(content))
}

// Entry is a cached source with its expiry. A zero ExpiresAt never expires.
type Entry struct {
	Value     []byte    `msgpack:"value"`
	ExpiresAt time.Time `msgpack:"expires_at,omitempty"`
	CreatedAt time.Time `msgpack:"created_at"`
}

func newEntry(value []byte, ttl time.Duration) Entry {
	now := time.Now()
	e := Entry{Value: value, CreatedAt: now}
	if ttl != 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// IsExpired reports whether the entry has expired.
func (e *Entry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}
