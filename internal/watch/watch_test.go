package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_FiresOnNotebookWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.ipynb")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	changed := make(chan string, 4)
	w := New(dir, nil, 50*time.Millisecond, nil, func(_ context.Context, p string) {
		changed <- p
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"cells":[]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case p := <-changed:
		if filepath.Base(p) != "demo.ipynb" {
			t.Errorf("changed path = %s, want demo.ipynb", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change callback within 5s")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_IgnoresNonNotebookFiles(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan string, 4)
	w := New(dir, nil, 50*time.Millisecond, nil, func(_ context.Context, p string) {
		changed <- p
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case p := <-changed:
		t.Errorf("unexpected callback for %s", p)
	case <-time.After(time.Second):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burst.ipynb")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var mu sync.Mutex
	count := 0
	w := New(dir, nil, 300*time.Millisecond, nil, func(_ context.Context, _ string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(200 * time.Millisecond)
	for range 5 {
		if err := os.WriteFile(path, []byte(`{"cells":[]}`), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(time.Second)
	mu.Lock()
	got := count
	mu.Unlock()
	if got != 1 {
		t.Errorf("callback fired %d times for one burst, want 1", got)
	}
}
