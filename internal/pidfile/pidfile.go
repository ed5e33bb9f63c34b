// Package pidfile records the daemon's process ID and holds an advisory lock
// on the file for as long as the process image lives.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another live process holds the pid file.
var ErrLocked = errors.New("pid file is locked by another process")

// File is a written, locked pid file. The lock descriptor is close-on-exec,
// so a restart releases it and the new image takes it again.
type File struct {
	path string
	pid  int
	lock *flock.Flock
}

// Write locks path and writes pid followed by a newline. The file is created
// when missing and truncated otherwise.
func Write(path string, pid int) (*File, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock pid file %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file %s: %w", path, err)
	}
	return &File{path: path, pid: pid, lock: lock}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) PID() int { return f.pid }

// Release drops the lock. The file is left in place.
func (f *File) Release() error {
	if f == nil || f.lock == nil {
		return nil
	}
	return f.lock.Unlock()
}

// Read parses the pid stored at path.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}

// Held reports whether some process currently holds the lock on path. A
// missing file is not held.
func Held(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe pid file lock %s: %w", path, err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}
