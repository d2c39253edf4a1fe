package pipeline

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// MemoryWriter implements Writer without filesystem I/O. It is used by dry runs of embedders and
// by tests.
type MemoryWriter struct {
	mu    sync.RWMutex
	Files map[string][]byte
	// Fail, when set, is consulted before each write; a non-nil error fails the write.
	Fail func(path string) error
}

// WriteFile stores a copy of data in memory.
func (m *MemoryWriter) WriteFile(path string, data []byte) error {
	if m.Fail != nil {
		if err := m.Fail(path); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Files == nil {
		m.Files = make(map[string][]byte)
	}
	m.Files[path] = slices.Clone(data)
	return nil
}

// GetFile retrieves a file's content.
func (m *MemoryWriter) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.Files[path]
	return data, ok
}

// Paths returns the written paths in sorted order.
func (m *MemoryWriter) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := lo.Keys(m.Files)
	slices.Sort(paths)
	return paths
}

// Ensure MemoryWriter implements Writer interface
var _ Writer = (*MemoryWriter)(nil)
