package supervisor

import "sync/atomic"

// RestartRequester is the entry point other subsystems use to ask for a
// restart without sending a signal.
type RestartRequester interface {
	RequestRestart()
}

// Flags holds the pending lifecycle requests. Setters may be called from any
// goroutine; only the Scheduler reads and clears.
type Flags struct {
	restart atomic.Bool
	reopen  atomic.Bool
	tick    atomic.Bool
	wake    chan struct{}
}

// NewFlags returns cleared flags.
func NewFlags() *Flags {
	return &Flags{wake: make(chan struct{}, 1)}
}

// RequestRestart marks a restart as pending.
func (f *Flags) RequestRestart() { f.set(&f.restart) }

// RequestReopen marks a log reopen as pending.
func (f *Flags) RequestReopen() { f.set(&f.reopen) }

// RequestTick marks the one-second timers as due. Ticks coalesce.
func (f *Flags) RequestTick() { f.set(&f.tick) }

// Wake is signalled after any request so an idle collaborator can return early.
func (f *Flags) Wake() <-chan struct{} { return f.wake }

func (f *Flags) RestartPending() bool { return f.restart.Load() }

func (f *Flags) ReopenPending() bool { return f.reopen.Load() }

func (f *Flags) TickPending() bool { return f.tick.Load() }

func (f *Flags) set(flag *atomic.Bool) {
	flag.Store(true)
	select {
	case f.wake <- struct{}{}:
	default:
	}
}
