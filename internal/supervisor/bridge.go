package supervisor

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"hopm/internal/logging"
)

// TickInterval is the period of the internal timer.
const TickInterval = time.Second

// Bridge converts signals into flag writes.
type Bridge struct {
	flags    *Flags
	process  Process
	logger   *slog.Logger
	interval time.Duration

	signals chan os.Signal
	done    chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// InstallBridge registers the handlers and arms the timer.
func InstallBridge(flags *Flags, process Process, logger *slog.Logger, interval time.Duration) *Bridge {
	if interval <= 0 {
		interval = TickInterval
	}
	b := &Bridge{
		flags:    flags,
		process:  process,
		logger:   logging.NewComponentLogger(logger, "main"),
		interval: interval,
		signals:  make(chan os.Signal, 4),
		done:     make(chan struct{}),
	}

	signal.Ignore(unix.SIGPIPE)
	signal.Notify(b.signals, unix.SIGINT, unix.SIGHUP, unix.SIGUSR1)
	go b.loop()

	b.mu.Lock()
	b.timer = time.AfterFunc(interval, b.onTick)
	b.mu.Unlock()
	return b
}

// Stop unregisters the handlers and disarms the timer.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	signal.Stop(b.signals)
	close(b.done)
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *Bridge) loop() {
	for {
		select {
		case sig := <-b.signals:
			b.dispatch(sig)
		case <-b.done:
			return
		}
	}
}

// dispatch performs exactly one flag write per signal. SIGINT is the
// deliberate exception: it logs and exits without involving the main loop.
func (b *Bridge) dispatch(sig os.Signal) {
	switch sig {
	case unix.SIGINT:
		b.logger.Info("Caught SIGINT, bye!")
		b.process.Exit(ExitOK)
	case unix.SIGHUP:
		b.flags.RequestRestart()
	case unix.SIGUSR1:
		b.flags.RequestReopen()
	}
}

// onTick re-arms a one-shot timer rather than using a ticker, so a skipped
// re-arm stops the clock instead of queueing ticks.
func (b *Bridge) onTick() {
	b.flags.RequestTick()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stopped {
		b.timer.Reset(b.interval)
	}
}
