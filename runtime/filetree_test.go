package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileTreeWriteLookup(t *testing.T) {
	tree := NewFileTree()
	if err := tree.Write("src/index.js", "console.log(1);"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, ok := tree.Lookup("src/index.js")
	if !ok || content != "console.log(1);" {
		t.Errorf("Lookup() = %q, %v", content, ok)
	}
	if _, ok := tree.Lookup("missing.js"); ok {
		t.Error("Lookup() found a path that was never written")
	}
}

func TestFileTreeReplaceKeepsOrder(t *testing.T) {
	tree := NewFileTree()
	for _, path := range []string{"a.js", "b.js", "a.js"} {
		if err := tree.Write(path, "v"); err != nil {
			t.Fatal(err)
		}
	}
	if err := tree.Write("a.js", "v2"); err != nil {
		t.Fatal(err)
	}

	paths := tree.Paths()
	if len(paths) != 2 || paths[0] != "a.js" || paths[1] != "b.js" {
		t.Errorf("Paths() = %v, want first-write order [a.js b.js]", paths)
	}
	if content, _ := tree.Lookup("a.js"); content != "v2" {
		t.Errorf("Lookup(a.js) = %q, want replaced content", content)
	}

	stats := tree.Stats()
	if stats.Files != 2 {
		t.Errorf("Stats().Files = %d, want 2", stats.Files)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"simple", "index.js", false},
		{"nested", "src/lib/util.js", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"parent escape", "../outside.txt", true},
		{"embedded parent", "src/../../outside.txt", true},
		{"dot segment", "./index.js", true},
		{"empty segment", "src//util.js", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestFileTreeRejectsOversizedFile(t *testing.T) {
	tree := NewFileTree()
	err := tree.Write("big.bin", strings.Repeat("x", MaxFileSize+1))
	if err == nil {
		t.Fatal("Write() accepted content above the size limit")
	}
	if _, ok := tree.Lookup("big.bin"); ok {
		t.Error("rejected file is present in the tree")
	}
}

func TestFileTreeSnapshotSorted(t *testing.T) {
	tree := NewFileTree()
	for _, path := range []string{"z.js", "a.js", "m/n.js"} {
		if err := tree.Write(path, "x"); err != nil {
			t.Fatal(err)
		}
	}

	snap := tree.Snapshot()
	want := []string{"a.js", "m/n.js", "z.js"}
	if len(snap) != len(want) {
		t.Fatalf("Snapshot() len = %d, want %d", len(snap), len(want))
	}
	for i, rec := range snap {
		if rec.Path != want[i] {
			t.Errorf("Snapshot()[%d].Path = %q, want %q", i, rec.Path, want[i])
		}
		if rec.Size != 1 {
			t.Errorf("Snapshot()[%d].Size = %d, want 1", i, rec.Size)
		}
	}
}

func TestFileTreeWriteTo(t *testing.T) {
	tree := NewFileTree()
	if err := tree.Write("src/app/main.js", "main"); err != nil {
		t.Fatal(err)
	}
	if err := tree.Write("README.md", "# readme"); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := tree.WriteTo(dir); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "src", "app", "main.js"))
	if err != nil {
		t.Fatalf("nested file not materialized: %v", err)
	}
	if string(data) != "main" {
		t.Errorf("materialized content = %q", data)
	}
}
