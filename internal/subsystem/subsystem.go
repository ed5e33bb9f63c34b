// Package subsystem defines the contracts the main loop drives. Messaging,
// scanning and command processing live outside this module; they plug in
// through these interfaces.
package subsystem

import "time"

// Timer is invoked once per tick from the main loop.
type Timer interface {
	Timer()
}

// Subsystem is driven once per loop iteration and once per tick.
//
// Cycle must bound its own blocking: the main loop only reaches pending
// restart, reopen and tick work after Cycle returns.
type Subsystem interface {
	Timer
	Cycle()
}

// Nop does nothing.
type Nop struct{}

func (Nop) Cycle() {}

func (Nop) Timer() {}

// Idle stands in for a messaging layer with no connections: Cycle waits until
// woken or until the poll interval elapses.
type Idle struct {
	wake <-chan struct{}
	wait time.Duration
}

// NewIdle returns an Idle that waits at most wait per Cycle.
func NewIdle(wake <-chan struct{}, wait time.Duration) *Idle {
	return &Idle{wake: wake, wait: wait}
}

func (i *Idle) Cycle() {
	if i.wait <= 0 {
		return
	}
	timer := time.NewTimer(i.wait)
	defer timer.Stop()
	select {
	case <-i.wake:
	case <-timer.C:
	}
}

func (i *Idle) Timer() {}
