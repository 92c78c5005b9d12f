package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/rsxhot/rsx"
)

const (
	// ConfigFileName is the name of the config file looked up in the project root
	ConfigFileName = "rsxhot.yaml"

	// EnvConfigPath overrides the config file location
	EnvConfigPath = "RSXHOT_CONFIG"
)

var validate = validator.New()

// Config represents the rsxhot configuration
type Config struct {
	// Root is the directory scanned for template documents
	Root string `yaml:"root" validate:"required"`

	// Extensions are the file extensions treated as template documents
	Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`

	// Addr is the dev server listen address
	Addr string `yaml:"addr" validate:"hostname_port"`

	// Debounce is how long the watcher waits after the last write to a file
	// before reloading it
	Debounce time.Duration `yaml:"debounce" validate:"gt=0"`

	// Store selects the template cache: "memory" or "sqlite"
	Store string `yaml:"store" validate:"oneof=memory sqlite"`

	// DatabasePath is the SQLite file used when Store is "sqlite"
	DatabasePath string `yaml:"database_path,omitempty" validate:"required_if=Store sqlite"`

	// CacheSize is the number of templates kept in the LRU in front of the store
	CacheSize int `yaml:"cache_size" validate:"gte=0"`

	// Mappings rename elements and attributes and place them in namespaces
	Mappings rsx.TableContext `yaml:"mappings,omitempty"`

	Log LogConfig `yaml:"log"`

	// Version tracks the config file version for future migrations
	Version string `yaml:"version,omitempty"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Root:         ".",
		Extensions:   []string{".rsx.yaml", ".rsx.yml"},
		Addr:         "localhost:8090",
		Debounce:     100 * time.Millisecond,
		Store:        "memory",
		DatabasePath: ".rsxhot/templates.db",
		CacheSize:    256,
		Log:          LogConfig{Level: "info", Format: "text"},
		Version:      "1.0",
	}
}

// Path returns the config file to load: $RSXHOT_CONFIG if set, otherwise
// rsxhot.yaml in dir.
func Path(dir string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(dir, ConfigFileName)
}

// LoadConfig loads the configuration from path.
// If the file doesn't exist, returns a default config
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unset fields keep their defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to path
func SaveConfig(path string, config *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
