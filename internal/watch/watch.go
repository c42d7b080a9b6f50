// Package watch re-validates notebooks as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/taigrr/nbcheck/internal/pathfilter"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the event bursts editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher invokes a callback for each changed notebook, debounced per path.
type Watcher struct {
	root     string
	filter   *pathfilter.PathFilter
	debounce time.Duration
	log      *zap.Logger
	onChange func(ctx context.Context, path string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher over a directory tree.
func New(root string, filter *pathfilter.PathFilter, debounce time.Duration, log *zap.Logger, onChange func(ctx context.Context, path string)) *Watcher {
	if filter == nil {
		filter = pathfilter.New(nil)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		root:     root,
		filter:   filter,
		debounce: debounce,
		log:      log,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the whole tree; fsnotify is not recursive by itself.
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(w.root, path)
		if rel != "." && !w.filter.IsAllowed(rel+"/") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	w.log.Info("watching for notebook changes", zap.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		// New directories must be added to keep the tree covered.
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			_ = fw.Add(event.Name)
			return
		}
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	rel = strings.ReplaceAll(rel, "\\", "/")
	if !w.filter.IsAllowed(rel) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule resets the per-path debounce timer so a burst of writes
// triggers a single re-validation.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.log.Debug("notebook changed", zap.String("path", path))
		w.onChange(ctx, path)
	})
}
