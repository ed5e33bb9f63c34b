package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Build-time layout. Override with, for example,
// -ldflags "-X hopm/internal/paths.Prefix=/opt/hopm".
var (
	Prefix      = "/usr/local"
	ConfigDir   = "/usr/local/etc"
	LogDir      = "/usr/local/var/log"
	BinPath     = "/usr/local/bin/hopm"
	DefaultName = "hopm"
	ConfigExt   = "toml"
	LogExt      = "log"
)

// Layout describes where an installation keeps its files.
type Layout struct {
	Prefix    string
	ConfigDir string
	LogDir    string
	BinPath   string
	ConfigExt string
	LogExt    string
}

// DefaultLayout returns the layout compiled into the binary.
func DefaultLayout() Layout {
	return Layout{
		Prefix:    Prefix,
		ConfigDir: ConfigDir,
		LogDir:    LogDir,
		BinPath:   BinPath,
		ConfigExt: ConfigExt,
		LogExt:    LogExt,
	}
}

// PathSet holds every path the daemon or its restarted image will use.
type PathSet struct {
	Prefix        string
	ConfigFile    string
	LogFile       string
	ScanLogFile   string
	PidFile       string
	RestartBinary string
}

// Resolve computes the name-derived paths. PidFile and ScanLogFile stay empty
// until WithRuntime is applied.
func Resolve(layout Layout, name string) (PathSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PathSet{}, errors.New("configuration name is empty")
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return PathSet{}, fmt.Errorf("configuration name %q must not contain a path separator", name)
	}
	if strings.TrimSpace(layout.Prefix) == "" {
		return PathSet{}, errors.New("installation prefix is empty")
	}
	if strings.TrimSpace(layout.BinPath) == "" {
		return PathSet{}, errors.New("binary path is empty")
	}

	return PathSet{
		Prefix:        layout.Prefix,
		ConfigFile:    join(layout.ConfigDir, name, layout.ConfigExt),
		LogFile:       join(layout.LogDir, name, layout.LogExt),
		RestartBinary: layout.BinPath,
	}, nil
}

// WithRuntime returns a copy carrying the configuration-supplied paths.
func (p PathSet) WithRuntime(pidFile, scanLogFile string) PathSet {
	p.PidFile = pidFile
	p.ScanLogFile = scanLogFile
	return p
}

// HasScanLog reports whether a scan log is configured.
func (p PathSet) HasScanLog() bool {
	return p.ScanLogFile != ""
}

func join(dir, name, ext string) string {
	file := name
	if ext != "" {
		file = name + "." + ext
	}
	return dir + "/" + file
}
