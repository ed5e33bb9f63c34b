package main

import (
	"os"
	"strings"

	"hopm/internal/config"
	"hopm/internal/daemonrun"
	"hopm/internal/paths"
)

// Seams replaced by tests.
var (
	runDaemon     = daemonrun.Run
	currentLayout = paths.DefaultLayout
)

type commandContext struct {
	configName string
	debug      int
}

func (c *commandContext) name() string {
	name := strings.TrimSpace(c.configName)
	if name == "" {
		return paths.DefaultName
	}
	return name
}

func (c *commandContext) pathSet() (paths.PathSet, error) {
	return paths.Resolve(currentLayout(), c.name())
}

// loadConfig resolves paths and loads the named configuration.
func (c *commandContext) loadConfig() (paths.PathSet, *config.Config, error) {
	set, err := c.pathSet()
	if err != nil {
		return paths.PathSet{}, nil, err
	}
	cfg, err := config.Load(set.ConfigFile, set.Prefix)
	if err != nil {
		return set, nil, err
	}
	return set.WithRuntime(cfg.Options.PidFile, cfg.Options.ScanLog), cfg, nil
}

func (c *commandContext) daemonOptions() daemonrun.Options {
	debug := c.debug
	if debug < 0 {
		debug = 0
	}
	return daemonrun.Options{
		ConfigName: c.name(),
		DebugLevel: uint(debug),
		Layout:     currentLayout(),
		Args:       os.Args,
	}
}
