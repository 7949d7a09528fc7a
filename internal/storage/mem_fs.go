package storage

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing/fstest"
)

// MemFS is an in-memory implementation of FS for testing.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	calls MemCalls
}

// MemCalls tracks method invocations for test verification.
type MemCalls struct {
	Read   int
	Write  int
	Append int
	Copy   int
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func clean(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Read++

	data, ok := m.files[clean(path)]
	if !ok {
		return nil, ErrNotFound{Path: path}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Write++

	p := clean(path)
	m.mkdirUnlocked(filepath.Dir(p))
	m.files[p] = append([]byte(nil), data...)
	return nil
}

func (m *MemFS) AppendFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Append++

	p := clean(path)
	m.mkdirUnlocked(filepath.Dir(p))
	m.files[p] = append(m.files[p], data...)
	return nil
}

func (m *MemFS) CopyFile(dst, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Copy++

	data, ok := m.files[clean(src)]
	if !ok {
		return ErrNotFound{Path: src}
	}
	p := clean(dst)
	m.mkdirUnlocked(filepath.Dir(p))
	m.files[p] = append([]byte(nil), data...)
	return nil
}

func (m *MemFS) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirUnlocked(clean(path))
	return nil
}

func (m *MemFS) mkdirUnlocked(p string) {
	for p != "." && p != "/" && !m.dirs[p] {
		m.dirs[p] = true
		p = filepath.ToSlash(filepath.Dir(p))
	}
}

func (m *MemFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[clean(path)]
	return ok
}

// DirFS returns a snapshot of the files below dir.
func (m *MemFS) DirFS(dir string) fs.FS {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := clean(dir) + "/"
	snapshot := fstest.MapFS{}
	for p, data := range m.files {
		if rel, ok := strings.CutPrefix(p, prefix); ok {
			snapshot[rel] = &fstest.MapFile{Data: append([]byte(nil), data...), Mode: 0o644}
		}
	}
	return snapshot
}

// Files returns the sorted paths of all stored files.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Calls returns a copy of the call counters.
func (m *MemFS) Calls() MemCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
