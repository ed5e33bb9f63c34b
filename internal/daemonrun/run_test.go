package daemonrun_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"hopm/internal/daemonize"
	"hopm/internal/daemonrun"
	"hopm/internal/logging"
	"hopm/internal/pidfile"
	"hopm/internal/sandbox"
	"hopm/internal/subsystem"
	"hopm/internal/supervisor"
	"hopm/internal/testsupport"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	inst    testsupport.Installation
	backend *testsupport.SandboxBackend
	proc    *testsupport.Process
	sys     *testsupport.System
	stderr  *lockedBuffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		inst:    testsupport.NewInstallation(t),
		backend: &testsupport.SandboxBackend{},
		proc:    &testsupport.Process{Ceiling: 8},
		sys:     &testsupport.System{},
		stderr:  &lockedBuffer{},
	}
}

func (h *harness) deps() daemonrun.Deps {
	return daemonrun.Deps{
		Process:   h.proc,
		System:    h.sys,
		Sandbox:   h.backend,
		Stderr:    h.stderr,
		Messaging: subsystem.Nop{},
		PID:       4242,
	}
}

func (h *harness) start(t *testing.T, debug uint) *daemonrun.Runtime {
	t.Helper()
	rt := daemonrun.Start(daemonrun.Options{
		ConfigName: "hopm",
		DebugLevel: debug,
		Layout:     h.inst.Layout,
		Args:       []string{"hopm"},
	}, h.deps())
	t.Cleanup(func() {
		rt.Bridge.Stop()
		_ = rt.PidFile.Release()
		_ = rt.MainLog.Close()
		if rt.ScanLog != nil {
			_ = rt.ScanLog.Close()
		}
	})
	return rt
}

func (h *harness) revealed() []sandbox.Grant {
	var out []sandbox.Grant
	for _, call := range h.backend.Calls() {
		if call.Op == "reveal" && call.Path != "/" {
			out = append(out, sandbox.Grant{Path: call.Path, Rights: call.Rights})
		}
	}
	return out
}

func assertFootprint(t *testing.T, rt *daemonrun.Runtime, debug bool) {
	t.Helper()
	want := sandbox.Footprint(rt.Paths, debug)
	got := rt.Stager.Grants()
	if len(got) != len(want) {
		t.Fatalf("grants: got %d want %d\n got %+v\nwant %+v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("grant %d: got %+v want %+v", i, got[i], want[i])
		}
	}
	if !rt.Stager.Finalized() {
		t.Fatal("sandbox not finalized")
	}
}

func TestDebugStartFollowsBootstrapOrder(t *testing.T) {
	h := newHarness(t)
	h.inst.WriteConfig(t, "hopm",
		"[options]",
		`pidfile = "var/run/hopm.pid"`,
		`scanlog = "var/log/scan.log"`,
	)

	rt := h.start(t, 2)

	assertFootprint(t, rt, true)
	if rt.Paths.ScanLogFile != filepath.Join(h.inst.Root, "var", "log", "scan.log") {
		t.Fatalf("scan log path: got %q", rt.Paths.ScanLogFile)
	}

	out := h.stderr.String()
	debugAt := strings.Index(out, "Debug level 2")
	startedAt := strings.Index(out, "HOPM dev started.")
	readingAt := strings.Index(out, "Reading configuration file...")
	if debugAt < 0 || startedAt < 0 || readingAt < 0 {
		t.Fatalf("missing banner lines in %q", out)
	}
	if !(debugAt < startedAt && startedAt < readingAt) {
		t.Fatalf("banner out of order: %q", out)
	}

	data, err := os.ReadFile(rt.Paths.PidFile)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if got := string(data); got != "4242\n" {
		t.Fatalf("pid file: got %q want %q", got, "4242\n")
	}
	if _, err := os.Stat(rt.Paths.ScanLogFile); err != nil {
		t.Fatalf("scan log not created: %v", err)
	}
	if chdirs := h.proc.Chdirs(); len(chdirs) != 1 || chdirs[0] != h.inst.Root {
		t.Fatalf("chdir: got %v want [%s]", chdirs, h.inst.Root)
	}
	if !h.proc.CoreLimitRaised() {
		t.Fatal("core limit not raised")
	}
	if rt.MainLog.IsOpen() {
		t.Fatal("debug mode must not open the log file")
	}
	if len(h.sys.Spawns()) != 0 {
		t.Fatal("debug mode must not detach")
	}
}

func TestDetachedChildLogsToFile(t *testing.T) {
	h := newHarness(t)
	h.sys.Env = map[string]string{daemonize.EnvDetached: "1"}
	h.inst.WriteConfig(t, "hopm")

	rt := h.start(t, 0)

	assertFootprint(t, rt, false)
	if h.stderr.String() != "" {
		t.Fatalf("detached child wrote to stderr: %q", h.stderr.String())
	}
	data, err := os.ReadFile(rt.Paths.LogFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "HOPM dev started.") {
		t.Fatalf("log file lacks start line: %q", data)
	}
	if strings.Contains(string(data), "Debug level") {
		t.Fatalf("non-debug start logged a debug level: %q", data)
	}
	if umasks := h.sys.Umasks(); len(umasks) != 1 || umasks[0] != daemonize.Umask {
		t.Fatalf("umask: got %v", umasks)
	}
	if h.sys.Getenv(daemonize.EnvDetached) != "" {
		t.Fatal("marker left in environment")
	}
}

func TestParentSpawnsChildAndExits(t *testing.T) {
	h := newHarness(t)
	h.inst.WriteConfig(t, "hopm")

	code := testsupport.ExpectExit(t, func() {
		daemonrun.Start(daemonrun.Options{ConfigName: "hopm", Layout: h.inst.Layout, Args: []string{"hopm"}}, h.deps())
	})
	if code != 0 {
		t.Fatalf("parent exit: got %d want 0", code)
	}

	spawns := h.sys.Spawns()
	if len(spawns) != 1 || spawns[0].Path != h.inst.Layout.BinPath {
		t.Fatalf("spawns: %+v", spawns)
	}
	grants := h.revealed()
	if len(grants) != 3 {
		t.Fatalf("parent grants: got %+v", grants)
	}
	if grants[1].Path != daemonize.DevNull || grants[2].Path != h.inst.Layout.BinPath || grants[2].Rights != sandbox.RightsExecute {
		t.Fatalf("parent grants out of order: %+v", grants)
	}
}

func TestUnwritablePidFileIsFatal(t *testing.T) {
	h := newHarness(t)
	blocker := filepath.Join(h.inst.Root, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}
	h.inst.WriteConfig(t, "hopm", "[options]", `pidfile = "blocker/hopm.pid"`)

	code := testsupport.ExpectExit(t, func() {
		daemonrun.Start(daemonrun.Options{ConfigName: "hopm", DebugLevel: 1, Layout: h.inst.Layout, Args: []string{"hopm"}}, h.deps())
	})
	if code != supervisor.ExitSetup {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitSetup)
	}
	if !strings.Contains(h.stderr.String(), "cannot write pid file") {
		t.Fatalf("missing pid file error in %q", h.stderr.String())
	}
	for _, call := range h.backend.Calls() {
		if call.Op == "restrict" && call.Promises == sandbox.RuntimePromises {
			t.Fatal("sandbox finalized despite pid file failure")
		}
	}
}

func TestMissingConfigIsFatal(t *testing.T) {
	h := newHarness(t)

	code := testsupport.ExpectExit(t, func() {
		daemonrun.Start(daemonrun.Options{ConfigName: "absent", DebugLevel: 1, Layout: h.inst.Layout}, h.deps())
	})
	if code != supervisor.ExitSetup {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitSetup)
	}
	out := h.stderr.String()
	if !strings.Contains(out, "Reading configuration file...") || !strings.Contains(out, "configuration failed") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConfigNameWithSeparatorIsFatal(t *testing.T) {
	h := newHarness(t)

	code := testsupport.ExpectExit(t, func() {
		daemonrun.Start(daemonrun.Options{ConfigName: "../etc/passwd", DebugLevel: 1, Layout: h.inst.Layout}, h.deps())
	})
	if code != supervisor.ExitSetup {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitSetup)
	}
	if len(h.revealed()) != 0 {
		t.Fatalf("paths granted for a rejected name: %+v", h.revealed())
	}
}

func TestDebugRestartIsRefused(t *testing.T) {
	h := newHarness(t)
	h.inst.WriteConfig(t, "hopm")
	rt := h.start(t, 1)

	rt.Flags.RequestRestart()
	code := testsupport.ExpectExit(t, rt.Scheduler.Step)

	if code != supervisor.ExitRestartRefused {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitRestartRefused)
	}
	if len(h.proc.Execs()) != 0 {
		t.Fatal("debug restart attempted exec")
	}
}

func TestRestartExecsBinaryWithOriginalArgs(t *testing.T) {
	h := newHarness(t)
	h.sys.Env = map[string]string{daemonize.EnvDetached: "1"}
	h.inst.WriteConfig(t, "hopm")
	rt := daemonrun.Start(daemonrun.Options{
		ConfigName: "hopm",
		Layout:     h.inst.Layout,
		Args:       []string{"hopm", "-c", "hopm"},
	}, h.deps())
	t.Cleanup(func() {
		rt.Bridge.Stop()
		_ = rt.PidFile.Release()
		_ = rt.MainLog.Close()
	})

	rt.Flags.RequestRestart()
	code := testsupport.ExpectExit(t, rt.Scheduler.Step)

	if code != supervisor.ExitExecFailed {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitExecFailed)
	}
	execs := h.proc.Execs()
	if len(execs) != 1 || execs[0].Path != h.inst.Layout.BinPath || strings.Join(execs[0].Argv, " ") != "hopm -c hopm" {
		t.Fatalf("exec: %+v", execs)
	}
	if got := len(h.proc.CloseOnExec()); got != 8 {
		t.Fatalf("descriptors marked: got %d want 8", got)
	}
}

func TestReopenCyclesMainLog(t *testing.T) {
	h := newHarness(t)
	h.sys.Env = map[string]string{daemonize.EnvDetached: "1"}
	h.inst.WriteConfig(t, "hopm")
	rt := h.start(t, 0)

	rotated := rt.Paths.LogFile + ".0"
	if err := os.Rename(rt.Paths.LogFile, rotated); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	rt.Flags.RequestReopen()
	rt.Scheduler.Step()

	data, err := os.ReadFile(rt.Paths.LogFile)
	if err != nil {
		t.Fatalf("read reopened log: %v", err)
	}
	if !strings.Contains(string(data), "reopened logfiles") {
		t.Fatalf("new log lacks reopen notice: %q", data)
	}
	old, err := os.ReadFile(rotated)
	if err != nil {
		t.Fatalf("read rotated log: %v", err)
	}
	if !strings.Contains(string(old), "Caught SIGUSR1, reopening logfiles") {
		t.Fatalf("rotated log lacks reopen notice: %q", old)
	}
}

func TestPidLockOutlivesRuntimeWhileSchedulerRuns(t *testing.T) {
	h := newHarness(t)
	h.sys.Env = map[string]string{daemonize.EnvDetached: "1"}
	h.inst.WriteConfig(t, "hopm")

	// Only what the main loop holds on to stays reachable.
	sched, bridge, mainLog, path := func() (*supervisor.Scheduler, *supervisor.Bridge, *logging.Sink, string) {
		rt := daemonrun.Start(daemonrun.Options{ConfigName: "hopm", Layout: h.inst.Layout, Args: []string{"hopm"}}, h.deps())
		return rt.Scheduler, rt.Bridge, rt.MainLog, rt.Paths.PidFile
	}()
	t.Cleanup(func() {
		bridge.Stop()
		_ = sched.PidFile().Release()
		_ = mainLog.Close()
	})

	for i := 0; i < 5; i++ {
		runtime.GC()
	}
	held, err := pidfile.Held(path)
	if err != nil {
		t.Fatalf("Held: %v", err)
	}
	if !held {
		t.Fatal("pid file lock dropped after garbage collection")
	}
	if sched.PidFile() == nil || sched.PidFile().Path() != path {
		t.Fatalf("scheduler does not own %s", path)
	}
	runtime.KeepAlive(sched)
}

func TestStartupSnapshotPrecedesFinalize(t *testing.T) {
	h := newHarness(t)
	h.inst.WriteConfig(t, "hopm")

	h.start(t, 1)

	out := h.stderr.String()
	snapshotAt := strings.Index(out, "startup snapshot")
	finalAt := strings.Index(out, "sandbox finalized")
	if snapshotAt < 0 || finalAt < 0 {
		t.Fatalf("missing snapshot or finalize line in %q", out)
	}
	if snapshotAt > finalAt {
		t.Fatalf("snapshot logged after the runtime narrowing: %q", out)
	}
}

func TestPledgeRejectsSizeRotation(t *testing.T) {
	h := newHarness(t)
	h.backend.BackendName = sandbox.PledgeBackend
	h.inst.WriteConfig(t, "hopm", "[logging]", "max_size_mb = 5")

	code := testsupport.ExpectExit(t, func() {
		daemonrun.Start(daemonrun.Options{ConfigName: "hopm", DebugLevel: 1, Layout: h.inst.Layout, Args: []string{"hopm"}}, h.deps())
	})
	if code != supervisor.ExitSetup {
		t.Fatalf("exit code: got %d want %d", code, supervisor.ExitSetup)
	}
	if !strings.Contains(h.stderr.String(), "logging.max_size_mb") {
		t.Fatalf("missing max_size_mb error in %q", h.stderr.String())
	}
	for _, call := range h.backend.Calls() {
		if call.Op == "restrict" && call.Promises == sandbox.RuntimePromises {
			t.Fatal("sandbox finalized despite rejected configuration")
		}
	}
}

func TestPledgeAcceptsDefaultConfig(t *testing.T) {
	h := newHarness(t)
	h.backend.BackendName = sandbox.PledgeBackend
	h.inst.WriteConfig(t, "hopm")

	rt := h.start(t, 1)

	if !rt.Stager.Confined() || !rt.Stager.Finalized() {
		t.Fatal("pledged start did not finalize")
	}
}

func TestRestartedImageDetachesAgain(t *testing.T) {
	h := newHarness(t)
	h.sys.Env = map[string]string{daemonize.EnvDetached: "1"}
	h.inst.WriteConfig(t, "hopm")
	h.start(t, 0)

	// exec keeps the environment, so the next image sees what the child left.
	if role := daemonize.RoleFor(0, h.sys); role != daemonize.RoleParent {
		t.Fatalf("role after restart: got %v want %v", role, daemonize.RoleParent)
	}
}
