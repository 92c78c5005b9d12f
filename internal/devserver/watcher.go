package devserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcher reports tracked files that were written or created. Events are
// debounced per path so an editor's burst of writes triggers one reload.
type watcher struct {
	root     string
	discover func() ([]string, error)
	debounce time.Duration
	onChange func(ctx context.Context, path string)
	logger   *slog.Logger

	mu      sync.Mutex
	tracked map[string]struct{}
	dirs    map[string]struct{}
	timers  map[string]*time.Timer
	fs      *fsnotify.Watcher
}

func newWatcher(root string, discover func() ([]string, error), debounce time.Duration, onChange func(context.Context, string), logger *slog.Logger) *watcher {
	return &watcher{
		root:     filepath.Clean(root),
		discover: discover,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		tracked:  make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		timers:   make(map[string]*time.Timer),
	}
}

// start opens the notifier and watches the root and every directory holding
// a tracked file.
func (w *watcher) start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fs = fsWatcher
	w.mu.Unlock()

	if err := w.addDir(w.root); err != nil {
		fsWatcher.Close()
		return err
	}
	w.rescan()
	return nil
}

func (w *watcher) addDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// rescan refreshes the tracked set and returns the files that were not
// tracked before.
func (w *watcher) rescan() []string {
	paths, err := w.discover()
	if err != nil {
		w.logger.Warn("failed to list files", "error", err)
	}

	var added []string
	for _, path := range paths {
		path = filepath.Clean(path)
		if err := w.addDir(filepath.Dir(path)); err != nil {
			w.logger.Warn("failed to watch directory", "dir", filepath.Dir(path), "error", err)
		}
		w.mu.Lock()
		if _, ok := w.tracked[path]; !ok {
			w.tracked[path] = struct{}{}
			added = append(added, path)
		}
		w.mu.Unlock()
	}
	return added
}

func (w *watcher) isTracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.tracked[path]
	return ok
}

func (w *watcher) run(ctx context.Context) error {
	if err := w.start(); err != nil {
		return err
	}
	w.loop(ctx)
	return nil
}

func (w *watcher) loop(ctx context.Context) {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addDir(path); err != nil {
				w.logger.Warn("failed to watch directory", "dir", path, "error", err)
			}
		}
		// files created inside a new directory before it was added
		// only show up in the rescan
		for _, added := range w.rescan() {
			if added != path {
				w.schedule(ctx, added)
			}
		}
	}

	if w.isTracked(path) {
		w.schedule(ctx, path)
	}
}

func (w *watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers == nil {
		return
	}
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
		if _, err := os.Stat(path); err != nil {
			w.logger.Debug("skipping vanished file", "path", path)
			return
		}
		w.onChange(ctx, path)
	})
}

func (w *watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = nil
	if w.fs != nil {
		w.fs.Close()
		w.fs = nil
	}
}
