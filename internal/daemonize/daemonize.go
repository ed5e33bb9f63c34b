// Package daemonize detaches the daemon from its controlling terminal.
//
// The runtime cannot fork safely, so detaching re-executes the binary in a
// new process group with stdio on the null device and a marker in the
// environment; the parent exits 0 once the child is started. The child sees
// the marker, removes it so a later restart detaches afresh, tightens its
// umask and points descriptors 0..2 at the null device. In debug mode none of
// this happens.
package daemonize

import (
	"fmt"
	"os"

	"hopm/internal/sandbox"
)

// EnvDetached marks a process started by a detaching parent.
const EnvDetached = "HOPM_DETACHED"

// Umask is applied by the detached child.
const Umask = 0o077

// DevNull is the null device stdio is redirected to.
const DevNull = sandbox.DevNull

// Role is the part a process plays in detaching.
type Role int

const (
	// RoleForeground stays attached: debug mode.
	RoleForeground Role = iota
	// RoleParent starts the detached child and exits.
	RoleParent
	// RoleChild is the detached process.
	RoleChild
)

func (r Role) String() string {
	switch r {
	case RoleForeground:
		return "foreground"
	case RoleParent:
		return "parent"
	case RoleChild:
		return "child"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// System covers the calls detaching makes.
type System interface {
	Getenv(key string) string
	Unsetenv(key string) error
	Environ() []string
	// Spawn starts path in a new process group with stdio on devNull.
	Spawn(path string, argv []string, env []string, devNull string) error
	Umask(mask int) int
	// RedirectStdio points descriptors 0..2 at devNull.
	RedirectStdio(devNull string) error
	Exit(code int)
}

// RoleFor returns the role of the current process.
func RoleFor(debugLevel uint, sys System) Role {
	if debugLevel > 0 {
		return RoleForeground
	}
	if sys.Getenv(EnvDetached) == "1" {
		return RoleChild
	}
	return RoleParent
}

// Detach performs the role's half of detaching. For RoleParent it does not
// return on success.
func Detach(role Role, sys System, binary string, argv []string) error {
	switch role {
	case RoleForeground:
		return nil
	case RoleParent:
		env := append(sys.Environ(), EnvDetached+"=1")
		if err := sys.Spawn(binary, argv, env, DevNull); err != nil {
			return fmt.Errorf("start detached process: %w", err)
		}
		sys.Exit(0)
		return nil
	case RoleChild:
		if err := sys.Unsetenv(EnvDetached); err != nil {
			return fmt.Errorf("clear %s: %w", EnvDetached, err)
		}
		sys.Umask(Umask)
		if err := sys.RedirectStdio(DevNull); err != nil {
			return fmt.Errorf("redirect stdio: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("detach: unknown role %s", role)
	}
}

// OS returns the System backed by the operating system.
func OS() System { return osSystem{} }

type osSystem struct{}

func (osSystem) Getenv(key string) string { return os.Getenv(key) }

func (osSystem) Unsetenv(key string) error { return os.Unsetenv(key) }

func (osSystem) Environ() []string { return os.Environ() }

func (osSystem) Exit(code int) { os.Exit(code) }
