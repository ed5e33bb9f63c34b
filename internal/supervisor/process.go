package supervisor

import (
	"os"

	"golang.org/x/sys/unix"
)

// Exit statuses.
const (
	ExitOK                = 0
	ExitSetup             = 1
	ExitRestartRefused    = 1
	ExitDescriptorCeiling = 2
	ExitExecFailed        = 3
)

// Process covers the process-level calls that end or replace the running image.
type Process interface {
	Exit(code int)
	Chdir(dir string) error
	RaiseCoreLimit() error
	DescriptorCeiling() (uint64, error)
	SetCloseOnExec(fd int) error
	Exec(path string, argv []string, env []string) error
}

// System returns the Process backed by the operating system.
func System() Process { return unixProcess{} }

type unixProcess struct{}

func (unixProcess) Exit(code int) { os.Exit(code) }

func (unixProcess) Chdir(dir string) error { return os.Chdir(dir) }

func (unixProcess) RaiseCoreLimit() error {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CORE, &rlim); err != nil {
		return err
	}
	rlim.Cur = rlim.Max
	return unix.Setrlimit(unix.RLIMIT_CORE, &rlim)
}

func (unixProcess) DescriptorCeiling() (uint64, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}
	return uint64(rlim.Cur), nil
}

func (unixProcess) SetCloseOnExec(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
	return err
}

func (unixProcess) Exec(path string, argv []string, env []string) error {
	return unix.Exec(path, argv, env)
}
