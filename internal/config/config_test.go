package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("Expected non-nil config")
	}
	if config.Store != "memory" {
		t.Errorf("Expected default store 'memory', got '%s'", config.Store)
	}
	if config.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", config.Version)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got %v", err)
	}
	if config.Addr != DefaultConfig().Addr {
		t.Errorf("Expected default addr, got %s", config.Addr)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `root: templates
addr: 127.0.0.1:9000
debounce: 1s
store: sqlite
database_path: cache.db
mappings:
  elements:
    svg: {name: svg, namespace: "http://www.w3.org/2000/svg"}
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Root != "templates" {
		t.Errorf("Expected root 'templates', got '%s'", config.Root)
	}
	if config.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %s", config.Debounce)
	}
	if config.Store != "sqlite" || config.DatabasePath != "cache.db" {
		t.Errorf("Expected sqlite store at cache.db, got %s at %s", config.Store, config.DatabasePath)
	}
	if tag, ns, ok := config.Mappings.MapElement("svg"); !ok || tag != "svg" || ns == "" {
		t.Errorf("Expected svg mapping, got %q %q %v", tag, ns, ok)
	}
	// unset fields keep defaults
	if len(config.Extensions) != 2 {
		t.Errorf("Expected default extensions, got %v", config.Extensions)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad store", "store: redis\n", "Store"},
		{"bad level", "log: {level: loud, format: text}\n", "Level"},
		{"bad addr", "addr: nowhere\n", "Addr"},
		{"bad extension", "extensions: [yaml]\n", "Extensions"},
		{"zero debounce", "debounce: 0s\n", "Debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	config := DefaultConfig()
	config.Addr = "localhost:7000"

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Addr != "localhost:7000" {
		t.Errorf("Expected addr localhost:7000, got %s", loaded.Addr)
	}
}

func TestPathEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/elsewhere.yaml")
	if got := Path("."); got != "/tmp/elsewhere.yaml" {
		t.Errorf("Path() = %s, want the env override", got)
	}
	t.Setenv(EnvConfigPath, "")
	if got := Path("proj"); got != filepath.Join("proj", ConfigFileName) {
		t.Errorf("Path() = %s", got)
	}
}
