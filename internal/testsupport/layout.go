package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopm/internal/paths"
)

// Installation is a throwaway install tree rooted in a test temp directory.
type Installation struct {
	Layout paths.Layout
	Root   string
}

// NewInstallation creates prefix, etc, var/log and var/run below a temp dir.
func NewInstallation(t testing.TB) Installation {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{"etc", "bin", filepath.Join("var", "log"), filepath.Join("var", "run")} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return Installation{
		Root: root,
		Layout: paths.Layout{
			Prefix:    root,
			ConfigDir: filepath.Join(root, "etc"),
			LogDir:    filepath.Join(root, "var", "log"),
			BinPath:   filepath.Join(root, "bin", "hopm"),
			ConfigExt: "toml",
			LogExt:    "log",
		},
	}
}

// WriteConfig writes a configuration named name. Lines are joined with
// newlines; with no lines a minimal valid configuration is written.
func (i Installation) WriteConfig(t testing.TB, name string, lines ...string) string {
	t.Helper()

	if len(lines) == 0 {
		lines = []string{"[options]", `pidfile = "var/run/hopm.pid"`}
	}
	path := filepath.Join(i.Layout.ConfigDir, name+"."+i.Layout.ConfigExt)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}
	return path
}
