package testsupport

import (
	"fmt"
	"sync"

	"hopm/internal/sandbox"
)

// SandboxCall is one backend invocation.
type SandboxCall struct {
	Op       string
	Promises string
	Path     string
	Rights   sandbox.Rights
}

func (c SandboxCall) String() string {
	if c.Op == "restrict" {
		return fmt.Sprintf("restrict(%s)", c.Promises)
	}
	return fmt.Sprintf("reveal(%s,%s)", c.Path, c.Rights)
}

// SandboxBackend records calls. Calls whose path or promises match a key of
// Fail return that error. BackendName overrides the reported name.
type SandboxBackend struct {
	Fail        map[string]error
	BackendName string

	mu    sync.Mutex
	calls []SandboxCall
}

func (b *SandboxBackend) Name() string {
	if b.BackendName != "" {
		return b.BackendName
	}
	return "recording"
}

func (b *SandboxBackend) Restrict(promises string) error {
	return b.record(SandboxCall{Op: "restrict", Promises: promises}, promises)
}

func (b *SandboxBackend) Reveal(path string, rights sandbox.Rights) error {
	return b.record(SandboxCall{Op: "reveal", Path: path, Rights: rights}, path)
}

func (b *SandboxBackend) Calls() []SandboxCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SandboxCall(nil), b.calls...)
}

func (b *SandboxBackend) record(call SandboxCall, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.Fail[key]; err != nil {
		return err
	}
	b.calls = append(b.calls, call)
	return nil
}
