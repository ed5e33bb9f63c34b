package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hopm/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hopm.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndResolvesAgainstRoot(t *testing.T) {
	path := writeConfig(t, "[options]\nscanlog = \"var/log/scan.log\"\n")

	cfg, err := config.Load(path, "/opt/hopm")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Options.PidFile != "/opt/hopm/var/run/hopm.pid" {
		t.Fatalf("unexpected pid file: got %q want %q", cfg.Options.PidFile, "/opt/hopm/var/run/hopm.pid")
	}
	if cfg.Options.ScanLog != "/opt/hopm/var/log/scan.log" {
		t.Fatalf("unexpected scan log: %q", cfg.Options.ScanLog)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.PollInterval() != time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
}

func TestLoadKeepsAbsolutePaths(t *testing.T) {
	path := writeConfig(t, "[options]\npidfile = \"/run/hopm.pid\"\n")

	cfg, err := config.Load(path, "/opt/hopm")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Options.PidFile != "/run/hopm.pid" {
		t.Fatalf("unexpected pid file: %q", cfg.Options.PidFile)
	}
	if cfg.Options.ScanLog != "" {
		t.Fatalf("expected no scan log, got %q", cfg.Options.ScanLog)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"), "/opt/hopm")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "open config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[options]\npidfle = \"x.pid\"\n")
	if _, err := config.Load(path, "/opt/hopm"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadNormalizesLogging(t *testing.T) {
	path := writeConfig(t, "[logging]\nformat = \" JSON \"\nlevel = \"DEBUG\"\n")

	cfg, err := config.Load(path, "/opt/hopm")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"empty pidfile":   func(c *config.Config) { c.Options.PidFile = "" },
		"scanlog=pidfile": func(c *config.Config) { c.Options.ScanLog = c.Options.PidFile },
		"bad format":      func(c *config.Config) { c.Logging.Format = "xml" },
		"bad level":       func(c *config.Config) { c.Logging.Level = "trace" },
		"negative size":   func(c *config.Config) { c.Logging.MaxSizeMB = -1 },
		"poll too small":  func(c *config.Config) { c.Daemon.PollIntervalMS = 1 },
		"poll too large":  func(c *config.Config) { c.Daemon.PollIntervalMS = 120000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateConfinedRejectsSizeRotation(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateConfined(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	cfg.Logging.MaxSizeMB = 5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("size rotation is valid without confinement: %v", err)
	}
	err := cfg.ValidateConfined()
	if err == nil || !strings.Contains(err.Error(), "logging.max_size_mb") {
		t.Fatalf("got %v want logging.max_size_mb error", err)
	}
}

func TestCreateSampleRoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "hopm.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, err := config.Load(path, "/opt/hopm")
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if cfg.Options.PidFile != "/opt/hopm/var/run/hopm.pid" {
		t.Fatalf("unexpected pid file: %q", cfg.Options.PidFile)
	}
}
