package devserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livefir/rsxhot/internal/logging"
)

func listYAML(root string) func() ([]string, error) {
	return func() ([]string, error) {
		var out []string
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".yaml") {
				out = append(out, path)
			}
			return nil
		})
		return out, err
	}
}

func expectChange(t *testing.T, changes <-chan string, want string) {
	t.Helper()
	select {
	case got := <-changes:
		if got != want {
			t.Errorf("Expected change to %s, got %s", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Timed out waiting for change to %s", want)
	}
}

func expectQuiet(t *testing.T, changes <-chan string) {
	t.Helper()
	select {
	case got := <-changes:
		t.Errorf("Unexpected change to %s", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.yaml")
	if err := os.WriteFile(a, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 16)
	w := newWatcher(root, listYAML(root), 20*time.Millisecond,
		func(_ context.Context, path string) { changes <- path },
		logging.Discard(),
	)
	if err := w.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.loop(ctx)

	// a burst of writes is reported once
	for _, contents := range []string{"one two", "one two three", "one two three four"} {
		if err := os.WriteFile(a, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	expectChange(t, changes, a)
	expectQuiet(t, changes)

	// untracked files are ignored
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changes)

	// new files, including ones in new directories, are picked up
	b := filepath.Join(root, "b.yaml")
	if err := os.WriteFile(b, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes, b)

	nested := filepath.Join(root, "pages")
	if err := os.Mkdir(nested, 0755); err != nil {
		t.Fatal(err)
	}
	c := filepath.Join(nested, "c.yaml")
	if err := os.WriteFile(c, []byte("nested"), 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes, c)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.yaml")
	if err := os.WriteFile(a, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w := newWatcher(root, listYAML(root), time.Hour,
		func(_ context.Context, path string) { changes <- path },
		logging.Discard(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(a, []byte("two"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	// pending reloads are dropped
	w.mu.Lock()
	pending := len(w.timers)
	w.mu.Unlock()
	if pending != 0 {
		t.Errorf("Expected no pending reloads, got %d", pending)
	}
	expectQuiet(t, changes)
}
