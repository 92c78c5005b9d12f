package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livefir/rsxhot/internal/config"
	"github.com/livefir/rsxhot/internal/logging"
	"github.com/livefir/rsxhot/rsx"
)

const oldBody = `- element: div
  attrs:
    - {name: class, value: "box {size}"}
  children:
    - text: "Hello {name}"
`

func writeBody(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiffReport(t *testing.T) {
	dir := t.TempDir()
	old := writeBody(t, dir, "old.yaml", oldBody)
	next := writeBody(t, dir, "new.yaml", strings.Replace(oldBody, "Hello {name}", "Hi there {name}", 1))

	var out bytes.Buffer
	if err := runDiff(&out, []string{"-config", filepath.Join(dir, "none.yaml"), old, next}); err != nil {
		t.Fatalf("runDiff: %v", err)
	}
	for _, want := range []string{"Template 0", "Dynamic Nodes:", `"Hi there {#`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestDiffJSON(t *testing.T) {
	dir := t.TempDir()
	old := writeBody(t, dir, "old.yaml", oldBody)
	next := writeBody(t, dir, "new.yaml", strings.Replace(oldBody, `"box {size}"`, `"panel {size}"`, 1))

	var out bytes.Buffer
	if err := runDiff(&out, []string{"-json", "-config", filepath.Join(dir, "none.yaml"), old, next}); err != nil {
		t.Fatalf("runDiff: %v", err)
	}
	var templates map[string]json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &templates); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out.String())
	}
	if _, ok := templates["0"]; !ok {
		t.Errorf("Expected template 0, got keys %v", templates)
	}
}

func TestDiffNotReloadable(t *testing.T) {
	dir := t.TempDir()
	old := writeBody(t, dir, "old.yaml", oldBody)
	next := writeBody(t, dir, "new.yaml", strings.Replace(oldBody, "Hello {name}", "Hello {user}", 1))

	err := runDiff(&bytes.Buffer{}, []string{"-config", filepath.Join(dir, "none.yaml"), old, next})
	if !errors.Is(err, ErrNotReloadable) {
		t.Fatalf("Expected ErrNotReloadable, got %v", err)
	}
}

func TestDiffUsage(t *testing.T) {
	if err := runDiff(&bytes.Buffer{}, []string{"only-one.yaml"}); err == nil {
		t.Error("Expected a usage error")
	}
}

func TestPreviewMappings(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Mappings.Elements = map[string]rsx.Mapping{"div": {Name: "section"}}
	cfgPath := filepath.Join(dir, "rsxhot.yaml")
	if err := config.SaveConfig(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}

	old := writeBody(t, dir, "old.yaml", oldBody)
	next := writeBody(t, dir, "new.yaml", strings.Replace(oldBody, "Hello {name}", "Bye {name}", 1))

	var out bytes.Buffer
	if err := runPreview(&out, []string{"-plain", "-config", cfgPath, old, next}); err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	if !strings.Contains(out.String(), "<section") {
		t.Errorf("Expected mapped element in output:\n%s", out.String())
	}
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	old := writeBody(t, dir, "old.yaml", oldBody)
	next := writeBody(t, dir, "new.yaml", strings.Replace(oldBody, "Hello {name}", "Welcome {name}", 1))

	var out bytes.Buffer
	if err := runPreview(&out, []string{"-plain", "-config", filepath.Join(dir, "none.yaml"), old, next}); err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	for _, want := range []string{`class="box {`, "Welcome {"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := runPreview(&out, []string{"-config", filepath.Join(dir, "none.yaml"), old, next}); err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	if !strings.Contains(out.String(), "Welcome") || !strings.Contains(out.String(), "Hello") {
		t.Errorf("Expected both sides of the change in the diff:\n%s", out.String())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeBody(t, dir, "page.rsx.yaml", "calls:\n  - line: 1\n    body:\n"+indent(oldBody, "      "))

	cfg := config.DefaultConfig()
	cfg.Root = dir
	cfg.Addr = "127.0.0.1:0"
	cfg.Debounce = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := serve(ctx, cfg, logging.Discard()); err != nil {
		t.Errorf("serve: %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store = "sqlite"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "templates.db")

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		t.Errorf("Expected database file: %v", err)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
