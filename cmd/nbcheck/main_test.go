package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/nbcheck/internal/pathfilter"
	"github.com/taigrr/nbcheck/internal/types"
)

func TestTargetDir(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing directory", func(t *testing.T) {
		got, err := targetDir([]string{dir})
		if err != nil {
			t.Fatalf("targetDir() error = %v", err)
		}
		if got != dir {
			t.Errorf("targetDir() = %q, want %q", got, dir)
		}
	})

	t.Run("missing directory is fatal", func(t *testing.T) {
		if _, err := targetDir([]string{filepath.Join(dir, "nope")}); err == nil {
			t.Error("targetDir() error = nil, want configuration error")
		}
	})

	t.Run("file is not a directory", func(t *testing.T) {
		path := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := targetDir([]string{path}); err == nil {
			t.Error("targetDir() error = nil, want error for non-directory")
		}
	})
}

func TestDiscoverNotebooks(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		"b-second.ipynb",
		"a-first.ipynb",
		"nested/c-third.ipynb",
		".ipynb_checkpoints/a-first-checkpoint.ipynb",
		"notes.txt",
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	paths, err := discoverNotebooks(dir, pathfilter.New(nil))
	if err != nil {
		t.Fatalf("discoverNotebooks() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a-first.ipynb"),
		filepath.Join(dir, "b-second.ipynb"),
		filepath.Join(dir, "nested", "c-third.ipynb"),
	}
	if len(paths) != len(want) {
		t.Fatalf("discoverNotebooks() returned %d paths, want %d: %v", len(paths), len(want), paths)
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, p, want[i])
		}
	}
}

func TestLoadIgnoreList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ignore.yaml")
	content := `ignore:
  - name: heavy-benchmark
    reason: slow
  - name: gpu-quantization
    reason: hardware
  - name: flaky-download
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	il, err := loadIgnoreList(path, []string{"cli-extra"})
	if err != nil {
		t.Fatalf("loadIgnoreList() error = %v", err)
	}

	tests := []struct {
		stem   string
		reason types.IgnoreReason
	}{
		{"heavy-benchmark", types.ReasonSlow},
		{"gpu-quantization", types.ReasonHardware},
		{"flaky-download", types.ReasonBroken}, // reason defaults to broken
		{"cli-extra", types.ReasonBroken},
	}
	for _, tt := range tests {
		entry, ok := il.Lookup(tt.stem)
		if !ok {
			t.Errorf("Lookup(%q) missing", tt.stem)
			continue
		}
		if entry.Reason != tt.reason {
			t.Errorf("Lookup(%q).Reason = %s, want %s", tt.stem, entry.Reason, tt.reason)
		}
	}

	if _, ok := il.Lookup("not-there"); ok {
		t.Error("Lookup(not-there) = true, want false")
	}
}
