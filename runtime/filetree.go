// Package runtime implements turn orchestration: streaming a model response
// through the extractor, materializing actions into a workspace, and
// classifying the turn outcome.
package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codeloom-io/loom/types"
)

// MaxFileSize is the maximum allowed size for a single materialized file (64 MiB).
const MaxFileSize = 64 * 1024 * 1024

// FileTree accumulates the materialized workspace in memory.
// Later writes to the same path replace earlier content, mirroring how a
// regenerated file in the model output supersedes the first version.
// Thread-safe for concurrent access.
type FileTree struct {
	mu    sync.RWMutex
	files map[string]string
	order []string // paths in first-write order
}

// NewFileTree creates an empty file tree.
func NewFileTree() *FileTree {
	return &FileTree{files: make(map[string]string)}
}

// ValidatePath rejects paths that would escape the workspace root.
// Paths must be relative, slash-separated, and free of "." and ".." segments.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path must not be empty")
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("file path %q must be relative", path)
	}
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".", "..":
			return fmt.Errorf("file path %q contains invalid segment %q", path, part)
		}
	}
	return nil
}

// Write stores content at path, replacing any earlier version.
func (t *FileTree) Write(path, content string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if len(content) > MaxFileSize {
		return fmt.Errorf("file %s: size %d exceeds max %d", path, len(content), MaxFileSize)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; !exists {
		t.order = append(t.order, path)
	}
	t.files[path] = content
	return nil
}

// Lookup returns the current content of path.
func (t *FileTree) Lookup(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	content, ok := t.files[path]
	return content, ok
}

// Stats summarizes the tree.
type FileTreeStats struct {
	// Files is the number of distinct paths.
	Files int64
	// Bytes is the total content size across all files.
	Bytes int64
}

// Stats returns current tree statistics.
func (t *FileTree) Stats() FileTreeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var bytes int64
	for _, content := range t.files {
		bytes += int64(len(content))
	}
	return FileTreeStats{Files: int64(len(t.files)), Bytes: bytes}
}

// Snapshot returns file records sorted by path.
func (t *FileTree) Snapshot() []types.FileRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records := make([]types.FileRecord, 0, len(t.files))
	for path, content := range t.files {
		records = append(records, types.FileRecord{Path: path, Size: int64(len(content))})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}

// Paths returns all paths in first-write order.
func (t *FileTree) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// WriteTo materializes the tree under dir, creating directories as needed.
func (t *FileTree) WriteTo(dir string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, path := range t.order {
		target := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("materialize %s: %w", path, err)
		}
		if err := os.WriteFile(target, []byte(t.files[path]), 0o644); err != nil {
			return fmt.Errorf("materialize %s: %w", path, err)
		}
	}
	return nil
}
