package supervisor

import (
	"log/slog"

	"hopm/internal/logging"
)

// Reopener is a log destination bound to a fixed path.
type Reopener interface {
	Open(path string) error
	Close() error
}

// LogTarget pairs a sink with the path it is reopened at.
type LogTarget struct {
	Name string
	Sink Reopener
	Path string
}

// Rotation closes and reopens the main log, then the scan log, so an external
// rotator can move the old files aside.
type Rotation struct {
	logger  *slog.Logger
	targets []LogTarget
}

// NewRotation keeps targets in order. Targets with no sink or path are
// skipped, which covers foreground mode and an unset scan log.
func NewRotation(logger *slog.Logger, targets ...LogTarget) *Rotation {
	kept := make([]LogTarget, 0, len(targets))
	for _, target := range targets {
		if target.Sink == nil || target.Path == "" {
			continue
		}
		kept = append(kept, target)
	}
	return &Rotation{logger: logging.NewComponentLogger(logger, "main"), targets: kept}
}

// Reopen cycles every target. A target that fails to reopen is reported and
// left closed; its writes fall back to the console or are dropped.
func (r *Rotation) Reopen() {
	r.logger.Info("Caught SIGUSR1, reopening logfiles")
	for _, target := range r.targets {
		if err := target.Sink.Close(); err != nil {
			r.logger.Warn("log close failed", slog.String("log", target.Name), logging.Error(err))
		}
		if err := target.Sink.Open(target.Path); err != nil {
			r.logger.Error("log reopen failed",
				slog.String("log", target.Name),
				slog.String("path", target.Path),
				logging.Error(err),
			)
		}
	}
	r.logger.Info("reopened logfiles")
}
