package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	t.Run("set and get", func(t *testing.T) {
		c.Set(ctx, "key", []byte("class FooBuilder {}"), time.Hour)

		val, ok := c.Get(ctx, "key")
		if !ok {
			t.Fatal("expected key to exist")
		}
		if string(val) != "class FooBuilder {}" {
			t.Errorf("Get() = %q", val)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, ok := c.Get(ctx, "missing"); ok {
			t.Error("expected key to not exist")
		}
	})

	t.Run("expired entry", func(t *testing.T) {
		c.Set(ctx, "expired", []byte("value"), -time.Hour)

		if _, ok := c.Get(ctx, "expired"); ok {
			t.Error("expected expired key to not exist")
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		c.Set(ctx, "forever", []byte("value"), 0)

		if _, ok := c.Get(ctx, "forever"); !ok {
			t.Error("expected entry without ttl to exist")
		}
	})
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	value := []byte("abc")
	c.Set(ctx, "key", value, time.Hour)
	value[0] = 'x'

	got, _ := c.Get(ctx, "key")
	got[1] = 'y'

	again, _ := c.Get(ctx, "key")
	if string(again) != "abc" {
		t.Errorf("cached value was mutated: %q", again)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "key", []byte("value"), time.Hour)
	c.Delete(ctx, "key")

	if _, ok := c.Get(ctx, "key"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "key1", []byte("value1"), time.Hour)
	c.Set(ctx, "key2", []byte("value2"), time.Hour)

	c.Clear(ctx)

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestMemoryCache_Prune(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "valid", []byte("value"), time.Hour)
	c.Set(ctx, "expired", []byte("value"), -time.Second)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	if removed := c.Prune(ctx); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(ctx, "valid"); !ok {
		t.Error("expected valid key to exist")
	}
}

func TestComputeKey(t *testing.T) {
	key1 := ComputeKey([]byte("content"))
	key2 := ComputeKey([]byte("content"))
	key3 := ComputeKey([]byte("different"))

	if key1 != key2 {
		t.Error("same content should produce same key")
	}
	if key1 == key3 {
		t.Error("different content should produce different key")
	}
	if len(key1) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("key length = %d, want 32", len(key1))
	}
}

func TestComputeKeyWithPrefix(t *testing.T) {
	key := ComputeKeyWithPrefix("builder", []byte("content"))

	if key[:8] != "builder:" {
		t.Errorf("key prefix = %q, want 'builder:'", key[:8])
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantNil bool
		wantErr bool
	}{
		{backend: "", wantNil: true},
		{backend: BackendNone, wantNil: true},
		{backend: BackendMemory},
		{backend: BackendFile},
		{backend: BackendSQLite},
		{backend: "redis", wantNil: true, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			c, err := Open(tc.backend, dir)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tc.wantErr)
			}
			if (c == nil) != tc.wantNil {
				t.Fatalf("Open() = %v, wantNil %v", c, tc.wantNil)
			}
			if s, ok := c.(*SQLiteCache); ok {
				_ = s.Close()
			}
		})
	}
}
