/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the Zeon configuration
type Config struct {
	DataDir       string  `yaml:"data_dir"`
	IndexFile     string  `yaml:"index_file"`
	ContentFile   string  `yaml:"content_file"`
	Sync          bool    `yaml:"sync"`
	MaxContentLen uint64  `yaml:"max_content_len"`
	Catalog       Catalog `yaml:"catalog"`
	Logging       Logging `yaml:"logging"`
	Metrics       Metrics `yaml:"metrics"`
}

// Catalog configures the object history index
type Catalog struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures where metrics are dumped when a command exits
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:       "./data",
		IndexFile:     "commits.idx",
		ContentFile:   "commits.dat",
		Sync:          false,
		MaxContentLen: 1 << 30,
		Catalog: Catalog{
			Enabled: true,
			Dir:     "catalog",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// IndexPath returns the index file location. Relative names are resolved
// against DataDir.
func (c *Config) IndexPath() string { return c.resolve(c.IndexFile) }

// ContentPath returns the content file location
func (c *Config) ContentPath() string { return c.resolve(c.ContentFile) }

// CatalogPath returns the catalog directory
func (c *Config) CatalogPath() string { return c.resolve(c.Catalog.Dir) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// LogLevel parses Logging.Level. An empty level means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}

// Validate checks the configuration for values the store cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%w: data_dir is required", ErrInvalidConfig))
	}
	if c.IndexFile == "" || c.ContentFile == "" {
		errs = append(errs, fmt.Errorf("%w: index_file and content_file are required", ErrInvalidConfig))
	}
	if c.IndexFile != "" && c.IndexPath() == c.ContentPath() {
		errs = append(errs, fmt.Errorf("%w: index_file and content_file must differ", ErrInvalidConfig))
	}
	if c.MaxContentLen == 0 {
		errs = append(errs, fmt.Errorf("%w: max_content_len must be positive", ErrInvalidConfig))
	}
	if c.Catalog.Enabled && c.Catalog.Dir == "" {
		errs = append(errs, fmt.Errorf("%w: catalog.dir is required when the catalog is enabled", ErrInvalidConfig))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration for dataDir to configPath
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./zeon.yaml"
	}

	// For Linux/macOS, use ~/.config/zeon/config.yaml
	configDir := filepath.Join(homeDir, ".config", "zeon")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
