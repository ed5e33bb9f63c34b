// Package daemonctl sends lifecycle requests to a running daemon through the
// process ID recorded in its pid file.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"hopm/internal/pidfile"
)

// Action is a lifecycle request a running daemon understands.
type Action string

const (
	ActionRestart Action = "restart"
	ActionReopen  Action = "reopen"
	ActionStop    Action = "stop"
)

// ErrDaemonNotRunning indicates no live process matches the pid file.
var ErrDaemonNotRunning = errors.New("daemon not running")

// ParseAction accepts an action name, case-insensitively.
func ParseAction(name string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(name))) {
	case ActionRestart:
		return ActionRestart, nil
	case ActionReopen:
		return ActionReopen, nil
	case ActionStop:
		return ActionStop, nil
	default:
		return "", fmt.Errorf("unknown action %q (want restart, reopen or stop)", name)
	}
}

// Signal is the signal that carries the action.
func (a Action) Signal() syscall.Signal {
	switch a {
	case ActionRestart:
		return syscall.SIGHUP
	case ActionReopen:
		return syscall.SIGUSR1
	default:
		return syscall.SIGINT
	}
}

// Status describes the daemon behind a pid file.
type Status struct {
	PID     int
	Running bool
	Locked  bool
}

// Inspect reads the pid file and probes the process it names.
func Inspect(pidPath string) (Status, error) {
	pid, err := pidfile.Read(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	locked, err := pidfile.Held(pidPath)
	if err != nil {
		return Status{}, err
	}
	return Status{PID: pid, Running: alive(pid), Locked: locked}, nil
}

// Send delivers action to the daemon named by the pid file and returns its pid.
func Send(pidPath string, action Action) (int, error) {
	status, err := Inspect(pidPath)
	if err != nil {
		return 0, err
	}
	if status.PID <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s): %w", pidPath, ErrDaemonNotRunning)
	}
	if status.PID == os.Getpid() {
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", status.PID)
	}
	if !status.Running {
		return 0, fmt.Errorf("pid %d: %w", status.PID, ErrDaemonNotRunning)
	}
	proc, err := os.FindProcess(status.PID)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", status.PID, err)
	}
	if err := proc.Signal(action.Signal()); err != nil {
		return 0, fmt.Errorf("signal daemon process %d: %w", status.PID, err)
	}
	return status.PID, nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
