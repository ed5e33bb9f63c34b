package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Options contains the runtime paths supplied by the configuration file.
type Options struct {
	PidFile string `toml:"pidfile"`
	ScanLog string `toml:"scanlog"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	MaxSizeMB int    `toml:"max_size_mb"`
}

// Daemon contains scheduling settings for the main loop collaborators.
type Daemon struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// Config encapsulates all configuration values for the daemon.
type Config struct {
	Options Options `toml:"options"`
	Logging Logging `toml:"logging"`
	Daemon  Daemon  `toml:"daemon"`
}

// Load reads, normalizes, and validates the configuration file at path.
// Relative paths inside the file are resolved against root.
func Load(path, root string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is empty")
	}
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.normalize(root); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PollInterval returns the bound on how long an idle collaborator may wait.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Daemon.PollIntervalMS) * time.Millisecond
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func resolvePath(pathValue, root string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	if !filepath.IsAbs(pathValue) {
		if strings.TrimSpace(root) == "" {
			return "", fmt.Errorf("relative path %q without installation root", pathValue)
		}
		pathValue = filepath.Join(root, pathValue)
	}
	return filepath.Clean(pathValue), nil
}
