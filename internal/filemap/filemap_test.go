package filemap_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/livefir/rsxhot/internal/document"
	"github.com/livefir/rsxhot/internal/filemap"
	"github.com/livefir/rsxhot/internal/store"
)

const appDoc = `file: src/app.rs
code: fn app() -> Element { rsx! {} }
calls:
  - line: 3
    column: 4
    body:
      - element: div
        attrs:
          - {name: class, value: "card {class_name}"}
        children:
          - text: "hello {name}"
          - for: item
            in: items
            body:
              - text: "{item}"
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func newMap(t *testing.T, root string, opts ...filemap.Option) *filemap.FileMap {
	t.Helper()
	m, err := filemap.New(context.Background(), root, filemap.ParserFunc(document.Parse), opts...)
	if err != nil {
		t.Fatalf("filemap.New: %v", err)
	}
	return m
}

func TestUpdateHotReloads(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "src", "app.yaml")
	writeFile(t, path, appDoc)
	m := newMap(t, root)

	// unchanged file sends nothing
	got, err := m.Update(context.Background(), path)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Expected no templates for an unchanged file, got %d", len(got))
	}

	writeFile(t, path, replace(appDoc, `"hello {name}"`, `"goodbye {name}!"`))
	got, err = m.Update(context.Background(), path)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 template, got %d", len(got))
	}
	if got[0].Location != "src/app.yaml:3:5:0" {
		t.Errorf("Location = %s, want src/app.yaml:3:5:0", got[0].Location)
	}

	// sending the same change again is filtered out
	got, err = m.Update(context.Background(), path)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected repeated change to be filtered, got %d templates", len(got))
	}
}

func TestUpdateNestedTemplate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "app.yaml")
	writeFile(t, path, appDoc)
	m := newMap(t, root)

	writeFile(t, path, replace(appDoc, `"{item}"`, `"- {item}"`))
	got, err := m.Update(context.Background(), path)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got) != 1 || got[0].Location != "app.yaml:3:5:1" {
		t.Fatalf("Expected only the loop body template, got %+v", got)
	}
}

func TestUpdateNeedsRebuild(t *testing.T) {
	tests := []struct {
		name   string
		change func(string) string
	}{
		{"code changed", func(s string) string { return replace(s, "fn app()", "fn main_app()") }},
		{"expression changed", func(s string) string { return replace(s, "in: items", "in: items.iter()") }},
		{"new interpolation", func(s string) string { return replace(s, `"hello {name}"`, `"hello {other}"`) }},
		{"call added", func(s string) string {
			return s + "  - line: 20\n    column: 4\n    body:\n      - text: extra\n"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, "app.yaml")
			writeFile(t, path, appDoc)
			m := newMap(t, root)

			writeFile(t, path, tt.change(appDoc))
			if _, err := m.Update(context.Background(), path); !errors.Is(err, filemap.ErrNotReloadable) {
				t.Fatalf("Expected ErrNotReloadable, got %v", err)
			}

			// the rebuilt contents become the new baseline; its templates are
			// sent once more since the rebuild forgot them
			if _, err := m.Update(context.Background(), path); err != nil {
				t.Fatalf("Expected the rebuilt file to hot reload, got %v", err)
			}
			if got, err := m.Update(context.Background(), path); err != nil || len(got) != 0 {
				t.Errorf("Expected nothing new after rebuild, got %d templates, %v", len(got), err)
			}
		})
	}
}

func TestUpdateParseError(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "app.yaml")
	writeFile(t, path, appDoc)
	m := newMap(t, root)

	writeFile(t, path, replace(appDoc, `"hello {name}"`, `"hello {name"`))
	if _, err := m.Update(context.Background(), path); !errors.Is(err, filemap.ErrParse) {
		t.Fatalf("Expected ErrParse, got %v", err)
	}
}

func TestUpdateNewAndMissingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.yaml"), appDoc)
	m := newMap(t, root)

	added := filepath.Join(root, "pages", "home.yaml")
	writeFile(t, added, appDoc)
	if _, err := m.Update(context.Background(), added); !errors.Is(err, filemap.ErrNotReloadable) {
		t.Fatalf("Expected ErrNotReloadable for a new file, got %v", err)
	}
	if len(m.Files()) != 2 {
		t.Errorf("Expected the new file to be tracked, got %v", m.Files())
	}

	_, err := m.Update(context.Background(), filepath.Join(root, "gone.yaml"))
	var failure *filemap.FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Expected FailureError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the failure to wrap ErrNotExist, got %v", err)
	}
}

func TestDiscoverSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.yaml"), appDoc)
	writeFile(t, filepath.Join(root, "target", "built.yaml"), appDoc)
	writeFile(t, filepath.Join(root, "node_modules", "pkg.yaml"), appDoc)
	writeFile(t, filepath.Join(root, ".git", "config.yaml"), appDoc)
	writeFile(t, filepath.Join(root, "notes.txt"), "not a template")

	m := newMap(t, root)
	files := m.Files()
	if len(files) != 1 || filepath.Base(files[0]) != "app.yaml" {
		t.Errorf("Files() = %v, want only app.yaml", files)
	}
}

func TestRebuildClearsSentTemplates(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "app.yaml")
	writeFile(t, path, appDoc)
	s := store.NewMemory()
	m := newMap(t, root, filemap.WithStore(s))

	writeFile(t, path, replace(appDoc, `"hello {name}"`, `"hi {name}"`))
	if _, err := m.Update(ctx, path); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if entries, _ := s.List(ctx); len(entries) == 0 {
		t.Fatal("Expected sent templates to be stored")
	}

	writeFile(t, path, replace(appDoc, "fn app()", "fn other()"))
	if _, err := m.Update(ctx, path); !errors.Is(err, filemap.ErrNotReloadable) {
		t.Fatalf("Expected ErrNotReloadable, got %v", err)
	}
	if entries, _ := s.List(ctx); len(entries) != 0 {
		t.Errorf("Expected stored templates to be cleared, got %d", len(entries))
	}
}

func TestTemplateLocation(t *testing.T) {
	if got := filemap.TemplateLocation(filepath.Join("src", "pages", "home.rs"), 10, 7); got != "src/pages/home.rs:10:8" {
		t.Errorf("TemplateLocation = %s", got)
	}
	if got := filemap.FormatTemplateName("a.rs:1:1", 3); got != "a.rs:1:1:3" {
		t.Errorf("FormatTemplateName = %s", got)
	}
}

func replace(s, old, next string) string {
	if !strings.Contains(s, old) {
		panic("replace: " + old + " not found")
	}
	return strings.Replace(s, old, next, 1)
}

func TestWithExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "home.rsx.yaml"), appDoc)
	writeFile(t, filepath.Join(root, "rsxhot.yaml"), "addr: localhost:9000\n")

	m := newMap(t, root, filemap.WithExtensions(".rsx.yaml"))
	files := m.Files()
	if len(files) != 1 || filepath.Base(files[0]) != "home.rsx.yaml" {
		t.Errorf("Files() = %v, want only home.rsx.yaml", files)
	}
}
