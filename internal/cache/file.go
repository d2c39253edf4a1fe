package cache

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	cacheDirPerm  = 0o750
	cacheFilePerm = 0o600
)

const entryExt = ".mpk"

// FileCache implements Cache on a directory. A key "builder:3fa2..." is stored as
// builder/3f/3fa2....mpk holding a msgpack Entry.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed and returns a cache stored in it.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the stored source. Expired and undecodable entries are misses and are removed.
func (f *FileCache) Get(_ context.Context, key string) ([]byte, bool) {
	path := f.path(key)
	entry, err := readEntry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			_ = os.Remove(path)
		}
		return nil, false
	}
	if entry.IsExpired() {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Value, true
}

// Set stores value under key. The entry file is replaced by rename so readers never see a partial
// entry.
func (f *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), cacheDirPerm); err != nil {
		return
	}
	data, err := msgpack.Marshal(newEntry(value, ttl))
	if err != nil {
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		return
	}
	_ = os.Chmod(tmp.Name(), cacheFilePerm)
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
	}
}

// Delete removes key.
func (f *FileCache) Delete(_ context.Context, key string) {
	_ = os.Remove(f.path(key))
}

// Clear removes every entry and recreates the directory.
func (f *FileCache) Clear(_ context.Context) {
	_ = os.RemoveAll(f.dir)
	_ = os.MkdirAll(f.dir, cacheDirPerm)
}

// Prune removes expired and undecodable entries and returns how many were removed.
func (f *FileCache) Prune(ctx context.Context) int {
	removed := 0
	_ = filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || filepath.Ext(path) != entryExt {
			return nil
		}
		if entry, err := readEntry(path); err == nil && !entry.IsExpired() {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed
}

// Entries returns the number of entry files, including expired ones.
func (f *FileCache) Entries() int {
	n := 0
	_ = filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == entryExt {
			n++
		}
		return nil
	})
	return n
}

func readEntry(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	err = msgpack.Unmarshal(data, &entry)
	return entry, err
}

// path maps key to its entry file. The part before the first colon names a directory and the first
// two characters of the rest shard it.
func (f *FileCache) path(key string) string {
	prefix, digest, ok := strings.Cut(key, ":")
	if !ok {
		prefix, digest = "", key
	}
	digest = fileSafe(digest)
	if digest == "" {
		digest = "_"
	}

	dir := f.dir
	if prefix != "" {
		dir = filepath.Join(dir, fileSafe(prefix))
	}
	if len(digest) > 2 {
		dir = filepath.Join(dir, digest[:2])
	}
	return filepath.Join(dir, digest+entryExt)
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

var (
	_ Cache  = (*FileCache)(nil)
	_ Pruner = (*FileCache)(nil)
)
