package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newSQLite(t *testing.T, dir string) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(dir)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := newSQLite(t, "")

	c.Set(ctx, "key", []byte("first"), time.Hour)
	c.Set(ctx, "key", []byte("second"), time.Hour)

	got, ok := c.Get(ctx, "key")
	if !ok || string(got) != "second" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}

	n, err := c.Len(ctx)
	if err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}
}

func TestSQLiteCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newSQLite(t, "")

	c.Set(ctx, "expired", []byte("value"), -time.Second)
	c.Set(ctx, "forever", []byte("value"), 0)

	if _, ok := c.Get(ctx, "expired"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Error("expected entry without ttl to hit")
	}

	n, _ := c.Len(ctx)
	if n != 1 {
		t.Errorf("expired entry not removed on read, Len() = %d", n)
	}
}

func TestSQLiteCachePrune(t *testing.T) {
	ctx := context.Background()
	c := newSQLite(t, "")

	c.Set(ctx, "dead", []byte("value"), -time.Second)
	c.Set(ctx, "live", []byte("value"), time.Hour)
	c.Set(ctx, "forever", []byte("value"), 0)

	if removed := c.Prune(ctx); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if n, _ := c.Len(ctx); n != 2 {
		t.Errorf("Len() after Prune = %d, want 2", n)
	}
}

func TestSQLiteCacheDeleteClear(t *testing.T) {
	ctx := context.Background()
	c := newSQLite(t, "")

	c.Set(ctx, "a", []byte("1"), time.Hour)
	c.Set(ctx, "b", []byte("2"), time.Hour)
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected deleted key to miss")
	}

	c.Clear(ctx)
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("Len() after Clear = %d", n)
	}
}

func TestSQLiteCachePersists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")

	first, err := NewSQLiteCache(dir)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	first.Set(ctx, "key", []byte("value"), time.Hour)
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, SQLiteFile)); err != nil {
		t.Fatalf("database file: %v", err)
	}

	second := newSQLite(t, dir)
	got, ok := second.Get(ctx, "key")
	if !ok || string(got) != "value" {
		t.Errorf("Get() after reopen = %q, %v", got, ok)
	}
}
