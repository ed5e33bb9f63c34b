//go:build !openbsd

package sandbox

type noopBackend struct{}

// DefaultBackend returns a backend that records nothing and restricts nothing.
func DefaultBackend() Backend { return noopBackend{} }

func (noopBackend) Name() string { return "none" }

func (noopBackend) Restrict(string) error { return nil }

func (noopBackend) Reveal(string, Rights) error { return nil }
