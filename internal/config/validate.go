package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOptions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// ValidateConfined rejects settings that create files after startup. A
// confined runtime aborts the process on the first such attempt.
func (c *Config) ValidateConfined() error {
	if c.Logging.MaxSizeMB > 0 {
		return errors.New("logging.max_size_mb must be 0 under pledge: size rotation creates files at runtime")
	}
	return nil
}

func (c *Config) validateOptions() error {
	if c.Options.PidFile == "" {
		return errors.New("options.pidfile must be set")
	}
	if c.Options.ScanLog != "" && c.Options.ScanLog == c.Options.PidFile {
		return errors.New("options.scanlog must differ from options.pidfile")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 {
		return errors.New("logging.max_size_mb must be >= 0")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.PollIntervalMS < minPollIntervalMS || c.Daemon.PollIntervalMS > maxPollIntervalMS {
		return fmt.Errorf("daemon.poll_interval_ms must be between %d and %d", minPollIntervalMS, maxPollIntervalMS)
	}
	return nil
}
