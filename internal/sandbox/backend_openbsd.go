//go:build openbsd

package sandbox

import "golang.org/x/sys/unix"

type pledgeBackend struct{}

// DefaultBackend returns the pledge/unveil backend.
func DefaultBackend() Backend { return pledgeBackend{} }

func (pledgeBackend) Name() string { return PledgeBackend }

func (pledgeBackend) Restrict(promises string) error {
	return unix.PledgePromises(promises)
}

func (pledgeBackend) Reveal(path string, rights Rights) error {
	return unix.Unveil(path, string(rights))
}
