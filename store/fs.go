package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSBackend stores objects as files under a root directory.
// Keys map directly onto relative file paths.
type FSBackend struct {
	root string
}

// NewFSBackend creates a filesystem backend rooted at dir.
func NewFSBackend(dir string) *FSBackend {
	return &FSBackend{root: dir}
}

// Put writes data to root/key, creating parent directories as needed.
func (b *FSBackend) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(b.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get reads the object at root/key.
func (b *FSBackend) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(b.root, filepath.FromSlash(key)))
}

// List walks root/prefix and returns all object keys, sorted lexically.
// A missing prefix directory yields an empty list, not an error.
func (b *FSBackend) List(_ context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(b.root, filepath.FromSlash(prefix))

	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the filesystem backend.
func (b *FSBackend) Close() error {
	return nil
}

// MemBackend is an in-memory backend for tests.
type MemBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemBackend creates an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{objects: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (b *MemBackend) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	b.objects[key] = cp
	return nil
}

// Get returns the object stored under key.
func (b *MemBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns all keys with the given prefix, sorted lexically.
func (b *MemBackend) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the in-memory backend.
func (b *MemBackend) Close() error {
	return nil
}

var (
	_ Backend = (*FSBackend)(nil)
	_ Backend = (*MemBackend)(nil)
)
