package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.phantom/phantom.yaml.
type Config struct {
	CatalogPath string `yaml:"catalog_path"`
	IndexDir    string `yaml:"index_dir,omitempty"`
	SearchK     int    `yaml:"search_k,omitempty"`
	Normalize   bool   `yaml:"normalize,omitempty"`
	ServerAddr  string `yaml:"server_addr,omitempty"`
}

// PhantomDir returns the absolute path to ~/.phantom/.
func PhantomDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".phantom"), nil
}

// ConfigPath returns the absolute path to ~/.phantom/phantom.yaml.
func ConfigPath() (string, error) {
	dir, err := PhantomDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phantom.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first phantom init.
func DefaultConfig() (*Config, error) {
	dir, err := PhantomDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CatalogPath: filepath.Join(dir, "phantoms.json"),
		IndexDir:    filepath.Join(dir, "index"),
		SearchK:     5,
		ServerAddr:  "127.0.0.1:8088",
	}, nil
}

// EffectiveSearchK returns the configured default result count, falling back to 5.
func (c *Config) EffectiveSearchK() int {
	if c.SearchK > 0 {
		return c.SearchK
	}
	return 5
}

// EffectiveIndexDir returns IndexDir, or ~/.phantom/index when unset.
func (c *Config) EffectiveIndexDir() (string, error) {
	if c.IndexDir != "" {
		return c.IndexDir, nil
	}
	dir, err := PhantomDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index"), nil
}

// Load reads and parses ~/.phantom/phantom.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	if cfg.CatalogPath, err = ExpandPath(cfg.CatalogPath); err != nil {
		return nil, err
	}
	if cfg.IndexDir, err = ExpandPath(cfg.IndexDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.phantom/phantom.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
