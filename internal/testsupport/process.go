package testsupport

import (
	"errors"
	"sync"
	"testing"
)

// ExitCode is the panic value raised by Process.Exit.
type ExitCode int

// ExecCall records one Exec invocation.
type ExecCall struct {
	Path string
	Argv []string
	Env  []string
}

// Process is a scriptable process-level fake. Exit panics with ExitCode
// unless RecordOnly is set, so code after an exit never runs.
type Process struct {
	Ceiling    uint64
	CeilingErr error
	ExecErr    error
	ChdirErr   error
	RecordOnly bool

	mu      sync.Mutex
	exits   []int
	cloexec []int
	execs   []ExecCall
	chdirs  []string
	core    int
}

func (p *Process) Exit(code int) {
	p.mu.Lock()
	p.exits = append(p.exits, code)
	recordOnly := p.RecordOnly
	p.mu.Unlock()
	if !recordOnly {
		panic(ExitCode(code))
	}
}

func (p *Process) Chdir(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chdirs = append(p.chdirs, dir)
	return p.ChdirErr
}

func (p *Process) RaiseCoreLimit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.core++
	return nil
}

func (p *Process) DescriptorCeiling() (uint64, error) {
	return p.Ceiling, p.CeilingErr
}

// SetCloseOnExec records fd. Odd descriptors report an error, as unopened
// slots would.
func (p *Process) SetCloseOnExec(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cloexec = append(p.cloexec, fd)
	if fd%2 == 1 {
		return errors.New("bad file descriptor")
	}
	return nil
}

// Exec records the call and always returns, ExecErr or a default error.
func (p *Process) Exec(path string, argv []string, env []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execs = append(p.execs, ExecCall{Path: path, Argv: append([]string(nil), argv...), Env: env})
	if p.ExecErr == nil {
		return errors.New("exec returned")
	}
	return p.ExecErr
}

func (p *Process) Exits() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.exits...)
}

func (p *Process) CloseOnExec() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.cloexec...)
}

func (p *Process) Execs() []ExecCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExecCall(nil), p.execs...)
}

func (p *Process) Chdirs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.chdirs...)
}

func (p *Process) CoreLimitRaised() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.core > 0
}

// ExpectExit runs fn and returns the code passed to the panicking Exit.
// It fails the test if fn returns normally or panics with anything else.
func ExpectExit(t testing.TB, fn func()) (code int) {
	t.Helper()

	exited := false
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			exit, ok := r.(ExitCode)
			if !ok {
				panic(r)
			}
			exited = true
			code = int(exit)
		}()
		fn()
	}()
	if !exited {
		t.Fatalf("expected process exit, function returned normally")
	}
	return code
}
