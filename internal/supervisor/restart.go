package supervisor

import (
	"log/slog"
	"os"

	"hopm/internal/logging"
)

// Restarter replaces the running image with a fresh copy of the binary.
type Restarter struct {
	process    Process
	logger     *slog.Logger
	debugLevel uint
	binary     string
	argv       []string
}

// NewRestarter returns a Restarter that execs binary with argv.
func NewRestarter(process Process, logger *slog.Logger, debugLevel uint, binary string, argv []string) *Restarter {
	return &Restarter{
		process:    process,
		logger:     logging.NewComponentLogger(logger, "main"),
		debugLevel: debugLevel,
		binary:     binary,
		argv:       append([]string(nil), argv...),
	}
}

// Restart does not return on success. In debug mode it refuses and exits.
func (r *Restarter) Restart() {
	if r.debugLevel > 0 {
		r.process.Exit(ExitRestartRefused)
		return
	}

	r.logger.Info("Restarting process")

	ceiling, err := r.process.DescriptorCeiling()
	if err != nil {
		r.logger.Error("cannot read open file limit", logging.Error(err))
		r.process.Exit(ExitDescriptorCeiling)
		return
	}
	MarkCloseOnExec(r.process, ceiling)

	err = r.process.Exec(r.binary, r.argv, os.Environ())
	r.logger.Error("execution failed", slog.String("binary", r.binary), logging.Error(err))
	r.process.Exit(ExitExecFailed)
}

// MarkCloseOnExec flags every descriptor in [0, ceiling). Errors are ignored;
// most slots are not open.
func MarkCloseOnExec(process Process, ceiling uint64) {
	for fd := uint64(0); fd < ceiling; fd++ {
		_ = process.SetCloseOnExec(int(fd))
	}
}
