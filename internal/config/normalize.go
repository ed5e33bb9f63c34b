package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize(root string) error {
	if err := c.normalizeOptions(root); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeOptions(root string) error {
	var err error
	if c.Options.PidFile, err = resolvePath(c.Options.PidFile, root); err != nil {
		return fmt.Errorf("options.pidfile: %w", err)
	}
	if c.Options.ScanLog, err = resolvePath(c.Options.ScanLog, root); err != nil {
		return fmt.Errorf("options.scanlog: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
