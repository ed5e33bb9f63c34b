package supervisor

import (
	"log/slog"

	"hopm/internal/logging"
	"hopm/internal/pidfile"
	"hopm/internal/subsystem"
)

// SchedulerOptions wires the main loop.
type SchedulerOptions struct {
	Flags     *Flags
	Messaging subsystem.Subsystem
	Scanning  subsystem.Subsystem
	Commands  subsystem.Timer
	Restarter *Restarter
	Rotation  *Rotation
	Logger    *slog.Logger
	// PidFile holds the single-instance lock. The scheduler keeps it
	// reachable so the lock lives as long as the loop does.
	PidFile *pidfile.File
}

// Scheduler is the main loop.
type Scheduler struct {
	flags     *Flags
	messaging subsystem.Subsystem
	scanning  subsystem.Subsystem
	commands  subsystem.Timer
	restarter *Restarter
	rotation  *Rotation
	logger    *slog.Logger
	pidFile   *pidfile.File
}

// NewScheduler fills missing collaborators with no-ops.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		flags:     opts.Flags,
		messaging: opts.Messaging,
		scanning:  opts.Scanning,
		commands:  opts.Commands,
		restarter: opts.Restarter,
		rotation:  opts.Rotation,
		logger:    logging.NewComponentLogger(opts.Logger, "scheduler"),
		pidFile:   opts.PidFile,
	}
	if s.flags == nil {
		s.flags = NewFlags()
	}
	if s.messaging == nil {
		s.messaging = subsystem.Nop{}
	}
	if s.scanning == nil {
		s.scanning = subsystem.Nop{}
	}
	if s.commands == nil {
		s.commands = subsystem.Nop{}
	}
	if s.rotation == nil {
		s.rotation = NewRotation(opts.Logger)
	}
	return s
}

// Flags returns the flags this scheduler consumes.
func (s *Scheduler) Flags() *Flags { return s.flags }

// PidFile returns the pid file held for the lifetime of the loop, or nil.
func (s *Scheduler) PidFile() *pidfile.File { return s.pidFile }

// Run never returns.
func (s *Scheduler) Run() {
	for {
		s.Step()
	}
}

// Step runs one iteration. A pending restart wins over a pending reopen, and
// reopen and tick requests present at that moment are never serviced.
func (s *Scheduler) Step() {
	s.messaging.Cycle()
	s.scanning.Cycle()

	if s.flags.restart.Load() {
		if s.restarter == nil {
			s.logger.Warn("restart requested but no restarter is configured")
			s.flags.restart.Store(false)
			return
		}
		s.restarter.Restart()
		return
	}

	if s.flags.reopen.Load() {
		s.rotation.Reopen()
		s.flags.reopen.Store(false)
	}

	if s.flags.tick.Load() {
		s.messaging.Timer()
		s.scanning.Timer()
		s.commands.Timer()
		s.flags.tick.Store(false)
	}
}
