package daemonrun

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"

	"hopm/internal/config"
	"hopm/internal/daemonize"
	"hopm/internal/logging"
	"hopm/internal/paths"
	"hopm/internal/pidfile"
	"hopm/internal/sandbox"
	"hopm/internal/subsystem"
	"hopm/internal/supervisor"
)

// Version is stamped at build time with -ldflags "-X hopm/internal/daemonrun.Version=...".
var Version = "dev"

// Options configures one daemon start.
type Options struct {
	ConfigName string
	DebugLevel uint
	Layout     paths.Layout
	// Args is the argument vector re-used for detaching and restarting.
	Args []string
}

// Deps are the operating-system seams. Zero fields use the real system.
type Deps struct {
	Process   supervisor.Process
	System    daemonize.System
	Sandbox   sandbox.Backend
	Stderr    io.Writer
	Messaging subsystem.Subsystem
	Scanning  subsystem.Subsystem
	Commands  subsystem.Timer
	PID       int
}

// Runtime is everything Start assembled.
type Runtime struct {
	Paths     paths.PathSet
	Config    *config.Config
	Logger    *slog.Logger
	BootID    string
	Stager    *sandbox.Stager
	MainLog   *logging.Sink
	ScanLog   *logging.Sink
	PidFile   *pidfile.File
	Flags     *supervisor.Flags
	Bridge    *supervisor.Bridge
	Scheduler *supervisor.Scheduler
}

// Run starts the daemon and drives the main loop. It never returns.
func Run(opts Options) {
	rt := Start(opts, Deps{})
	rt.Scheduler.Run()
	runtime.KeepAlive(rt)
}

// Start performs the bootstrap sequence up to, but not including, the main
// loop. Any failure is reported and ends the process with ExitSetup.
func Start(opts Options, deps Deps) *Runtime {
	deps = deps.withDefaults()
	debug := opts.DebugLevel > 0
	if len(opts.Args) == 0 {
		opts.Args = os.Args
	}
	if opts.Layout == (paths.Layout{}) {
		opts.Layout = paths.DefaultLayout()
	}

	mainLog := logging.NewSink(deps.Stderr, 0)
	base := mustLogger(deps, mainLog, "console", "info", opts.DebugLevel)
	logger := logging.NewComponentLogger(base, "main")
	fatal := func(msg string, err error) {
		logger.Error(msg, logging.Error(err))
		deps.Process.Exit(supervisor.ExitSetup)
		panic("unreachable")
	}

	stager := sandbox.New(deps.Sandbox, base)
	if err := stager.RequestBroad(); err != nil {
		fatal("sandbox request failed", err)
	}
	if err := deps.Process.RaiseCoreLimit(); err != nil {
		logger.Warn("core dump limit unchanged", logging.Error(err))
	}

	set, err := paths.Resolve(opts.Layout, opts.ConfigName)
	if err != nil {
		fatal("invalid configuration name", err)
	}
	grant := func(label, path string, rights sandbox.Rights) {
		if err := stager.Grant(label, path, rights); err != nil {
			fatal("sandbox grant failed", err)
		}
	}

	grant(sandbox.LabelRoot, set.Prefix, sandbox.RightsRead)
	if err := deps.Process.Chdir(set.Prefix); err != nil {
		fatal("chdir to installation prefix", err)
	}

	role := daemonize.RoleFor(opts.DebugLevel, deps.System)
	if !debug {
		grant(sandbox.LabelDevNull, daemonize.DevNull, sandbox.RightsReadWrite)
		if role == daemonize.RoleParent {
			grant(sandbox.LabelBinary, set.RestartBinary, sandbox.RightsExecute)
		}
		if err := daemonize.Detach(role, deps.System, set.RestartBinary, opts.Args); err != nil {
			fatal("detach failed", err)
		}
		grant(sandbox.LabelLog, set.LogFile, sandbox.RightsWriteCreate)
		if err := mainLog.Open(set.LogFile); err != nil {
			fatal("cannot open log file", err)
		}
	} else {
		logger.Info(fmt.Sprintf("Debug level %d", opts.DebugLevel))
	}

	bootID := uuid.NewString()
	logger.Info(fmt.Sprintf("HOPM %s started.", Version), slog.String("boot_id", bootID))
	logger.Info("Reading configuration file...")

	grant(sandbox.LabelConfig, set.ConfigFile, sandbox.RightsRead)
	cfg, err := config.Load(set.ConfigFile, set.Prefix)
	if err != nil {
		fatal("configuration failed", err)
	}
	if stager.Confined() {
		if err := cfg.ValidateConfined(); err != nil {
			fatal("configuration failed", err)
		}
	}
	mainLog.SetMaxSize(cfg.Logging.MaxSizeMB)
	base = mustLogger(deps, mainLog, cfg.Logging.Format, cfg.Logging.Level, opts.DebugLevel)
	logger = logging.NewComponentLogger(base, "main")
	set = set.WithRuntime(cfg.Options.PidFile, cfg.Options.ScanLog)

	var scanLog *logging.Sink
	if set.HasScanLog() {
		grant(sandbox.LabelScanLog, set.ScanLogFile, sandbox.RightsWriteCreate)
		scanLog = logging.NewSink(nil, cfg.Logging.MaxSizeMB)
		if err := scanLog.Open(set.ScanLogFile); err != nil {
			fatal("cannot open scan log", err)
		}
	}

	grant(sandbox.LabelPidFile, set.PidFile, sandbox.RightsWriteCreate)
	pid, err := pidfile.Write(set.PidFile, deps.PID)
	if err != nil {
		fatal("cannot write pid file", err)
	}

	grant(sandbox.LabelBinary, set.RestartBinary, sandbox.RightsExecute)
	// The runtime promises forbid stat, so anything touching the filesystem
	// happens above this line.
	logStartupSnapshot(logger, set, stager, role)
	if err := stager.Finalize(); err != nil {
		fatal("sandbox finalize failed", err)
	}

	flags := supervisor.NewFlags()
	bridge := supervisor.InstallBridge(flags, deps.Process, base, supervisor.TickInterval)

	messaging := deps.Messaging
	if messaging == nil {
		messaging = subsystem.NewIdle(flags.Wake(), cfg.PollInterval())
	}
	mainTarget := supervisor.LogTarget{Name: "main", Path: set.LogFile}
	if !debug {
		mainTarget.Sink = mainLog
	}
	scanTarget := supervisor.LogTarget{Name: "scan", Path: set.ScanLogFile}
	if scanLog != nil {
		scanTarget.Sink = scanLog
	}

	scheduler := supervisor.NewScheduler(supervisor.SchedulerOptions{
		Flags:     flags,
		Messaging: messaging,
		Scanning:  deps.Scanning,
		Commands:  deps.Commands,
		Restarter: supervisor.NewRestarter(deps.Process, base, opts.DebugLevel, set.RestartBinary, opts.Args),
		Rotation:  supervisor.NewRotation(base, mainTarget, scanTarget),
		Logger:    base,
		PidFile:   pid,
	})

	return &Runtime{
		Paths:     set,
		Config:    cfg,
		Logger:    base,
		BootID:    bootID,
		Stager:    stager,
		MainLog:   mainLog,
		ScanLog:   scanLog,
		PidFile:   pid,
		Flags:     flags,
		Bridge:    bridge,
		Scheduler: scheduler,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Process == nil {
		d.Process = supervisor.System()
	}
	if d.System == nil {
		d.System = daemonize.OS()
	}
	if d.Sandbox == nil {
		d.Sandbox = sandbox.DefaultBackend()
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.PID == 0 {
		d.PID = os.Getpid()
	}
	return d
}

// mustLogger builds the logger on top of sink. Any debug level forces debug
// output with source locations.
func mustLogger(deps Deps, sink *logging.Sink, format, level string, debugLevel uint) *slog.Logger {
	opts := logging.Options{Format: format, Level: level, Writer: sink}
	if debugLevel > 0 {
		opts.Level = "debug"
		opts.Development = debugLevel > 1
	}
	logger, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "hopm: init logger: %v\n", err)
		deps.Process.Exit(supervisor.ExitSetup)
		panic("unreachable")
	}
	return logger
}

func logStartupSnapshot(logger *slog.Logger, set paths.PathSet, stager *sandbox.Stager, role daemonize.Role) {
	logger.Debug("startup snapshot",
		slog.String("role", role.String()),
		slog.String("config", set.ConfigFile),
		slog.String("pidfile", set.PidFile),
		slog.String("scanlog", set.ScanLogFile),
		slog.String("binary", set.RestartBinary),
		slog.Bool("binary_available", binaryAvailable(set.RestartBinary)),
		slog.Int("grants", len(stager.Grants())),
	)
}

func binaryAvailable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0o111 != 0
}
