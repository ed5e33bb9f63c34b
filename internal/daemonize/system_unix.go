//go:build unix

package daemonize

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func (osSystem) Spawn(path string, argv []string, env []string, devNull string) error {
	null, err := os.OpenFile(devNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer null.Close()

	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{null, null, null},
		Sys:   &syscall.SysProcAttr{Setpgid: true},
	})
	if err != nil {
		return err
	}
	return proc.Release()
}

// heldNull keeps the null device open when it landed on a stdio slot, so the
// finalizer never closes that slot.
var heldNull *os.File

func (osSystem) Umask(mask int) int { return unix.Umask(mask) }

func (osSystem) RedirectStdio(devNull string) error {
	null, err := os.OpenFile(devNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	fd := int(null.Fd())
	for target := 0; target <= 2; target++ {
		if target == fd {
			continue
		}
		if err := unix.Dup2(fd, target); err != nil {
			null.Close()
			return err
		}
	}
	if fd > 2 {
		return null.Close()
	}
	heldNull = null
	return nil
}
