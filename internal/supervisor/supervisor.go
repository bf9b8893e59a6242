// Package supervisor owns the lifecycle of a single PGlite launcher process:
// spawn, readiness synchronization over the unix socket, crash detection and
// deterministic teardown. One supervisor manages exactly one child at a time;
// callers serialize Start/Stop/Restart on the same instance.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/loykin/pglite/internal/config"
	"github.com/loykin/pglite/internal/env"
	"github.com/loykin/pglite/internal/logger"
	"github.com/loykin/pglite/internal/metrics"
	"github.com/loykin/pglite/internal/probe"
	"github.com/loykin/pglite/internal/reaper"
	"github.com/loykin/pglite/internal/sockfile"
	"github.com/loykin/pglite/internal/workspace"
)

// State tags the supervisor's position in the lifecycle. It is advisory for
// observability; liveness questions go through IsRunning, which polls the OS.
type State int32

const (
	StateNotStarted State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	pollInterval     = 500 * time.Millisecond
	gracefulStopWait = 5 * time.Second
	killWait         = 2 * time.Second
	outputWait       = 2 * time.Second
	outputLimit      = 1000
	readyStability   = 200 * time.Millisecond
	// readyProbeTimeout bounds a single WaitForReady ping attempt.
	readyProbeTimeout = 5 * time.Second
)

// Provisioner prepares the workspace before spawn. The real implementation
// is workspace.Provisioner; the supervisor only needs the resulting paths.
type Provisioner interface {
	Prepare(ctx context.Context) (workspace.Workspace, error)
}

// Supervisor drives the launcher through
// NotStarted -> Starting -> Running -> Stopping -> Stopped, with Failed
// reachable from Starting. No internal locking: the contract is
// single-writer, one instance per test session.
type Supervisor struct {
	cfg         *config.Config
	log         *slog.Logger
	launcher    Launcher
	provisioner Provisioner
	table       reaper.Table
	clock       Clock
	sockProbe   probe.Probe
	readyProbe  probe.Probe

	handle Handle
	state  State
}

// Options injects alternate capabilities, mainly for tests and embedders.
// Zero fields fall back to the real implementations.
type Options struct {
	Logger      *slog.Logger
	Launcher    Launcher
	Provisioner Provisioner
	Table       reaper.Table
	Clock       Clock
	SocketProbe probe.Probe
	ReadyProbe  probe.Probe
}

func New(cfg *config.Config) *Supervisor {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) *Supervisor {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Supervisor{
		cfg:         cfg,
		log:         opts.Logger,
		launcher:    opts.Launcher,
		provisioner: opts.Provisioner,
		table:       opts.Table,
		clock:       opts.Clock,
		sockProbe:   opts.SocketProbe,
		readyProbe:  opts.ReadyProbe,
		state:       StateNotStarted,
	}
	if s.log == nil {
		s.log = logger.For(cfg.LogLevel, cfg.LogFile)
	}
	if s.launcher == nil {
		s.launcher = ExecLauncher{}
	}
	if s.provisioner == nil {
		s.provisioner = workspace.New(cfg, s.log)
	}
	if s.table == nil {
		s.table = reaper.OSTable{}
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.sockProbe == nil {
		s.sockProbe = probe.SocketProbe{Path: cfg.SocketPath}
	}
	if s.readyProbe == nil {
		s.readyProbe = probe.PingProbe{DSN: cfg.DSN()}
	}
	return s
}

// Start launches the server and blocks until it is ready or the configured
// timeout elapses. Idempotent: a live child makes it a logged no-op.
func (s *Supervisor) Start() error {
	if s.IsRunning() {
		s.log.Warn("pglite server already running", "pid", s.handle.PID())
		return nil
	}

	rp := reaper.Reaper{Table: s.table, Log: s.log}
	if n := rp.Reap(workspace.ArtifactName, s.cfg.SocketDir()); n > 0 {
		metrics.ConflictsReaped.Add(float64(n))
	}
	sockfile.Remove(s.cfg.SocketPath, s.log)

	ws, err := s.provisioner.Prepare(context.Background())
	if err != nil {
		s.state = StateFailed
		metrics.StartFailures.Inc()
		return fmt.Errorf("prepare workspace: %w", err)
	}

	s.log.Info("starting pglite server", "artifact", ws.Artifact, "socket", s.cfg.SocketPath)
	h, err := s.launcher.Start(ws.Dir, ws.Artifact, s.childEnv(ws.Env))
	if err != nil {
		s.state = StateFailed
		metrics.StartFailures.Inc()
		return fmt.Errorf("spawn launcher: %w", err)
	}
	s.handle = h
	s.state = StateStarting

	if err := s.awaitReady(); err != nil {
		s.state = StateFailed
		metrics.StartFailures.Inc()
		return err
	}
	s.state = StateRunning
	metrics.Starts.Inc()
	s.log.Info("pglite server started", "pid", h.PID())
	return nil
}

// childEnv merges the OS environment, configured overrides and the
// workspace's per-launch entries (NODE_PATH, NODE_OPTIONS).
func (s *Supervisor) childEnv(perLaunch []string) []string {
	e := env.New()
	e.FromOS()
	e.SetAll(s.cfg.Env)
	return e.Merge(perLaunch)
}

// awaitReady polls until the socket exists and a connect-and-close handshake
// succeeds, bounded by the configured timeout. The socket file may exist
// before the engine is fully bound, so a failed handshake keeps polling.
func (s *Supervisor) awaitReady() error {
	start := s.clock.Now()
	deadline := start.Add(s.cfg.Timeout)
	for s.clock.Now().Before(deadline) {
		if !s.handle.Alive() {
			out := truncate(s.handle.Output(outputWait), outputLimit)
			return &StartupError{
				Reason:  "launcher exited during startup",
				Output:  out,
				Elapsed: s.clock.Now().Sub(start),
			}
		}
		if _, err := os.Stat(s.cfg.SocketPath); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			err := s.sockProbe.Check(ctx)
			cancel()
			if err == nil {
				return nil
			}
			s.log.Debug("socket exists but not accepting connections yet", "err", err)
		}
		s.clock.Sleep(pollInterval)
	}

	s.log.Warn("pglite startup timed out, terminating launcher", "timeout", s.cfg.Timeout)
	s.terminate(s.handle)
	return &StartupError{
		Reason:  fmt.Sprintf("server not ready within %s", s.cfg.Timeout),
		Elapsed: s.clock.Now().Sub(start),
	}
}

// Stop tears the child down: SIGTERM, bounded wait, SIGKILL escalation.
// It never fails; every error is logged and swallowed so teardown code can
// call it unconditionally. The handle is always cleared.
func (s *Supervisor) Stop() {
	if s.handle == nil {
		return
	}
	s.state = StateStopping
	s.log.Debug("stopping pglite server", "pid", s.handle.PID())
	s.terminate(s.handle)
	s.handle = nil
	s.state = StateStopped
	metrics.Stops.Inc()
	if s.cfg.CleanupOnExit {
		sockfile.Remove(s.cfg.SocketPath, s.log)
		metrics.SocketCleanups.Inc()
	}
}

// terminate escalates: graceful signal, bounded wait, kill, shorter wait.
// An unreaped child after kill is logged and accepted; leaking a process is
// better than hanging test teardown forever.
func (s *Supervisor) terminate(h Handle) {
	sockfile.BestEffort(s.log, "terminate launcher", h.Terminate)
	if h.Wait(gracefulStopWait) {
		s.log.Info("pglite server stopped gracefully")
		return
	}
	s.log.Warn("pglite server did not stop gracefully, force killing", "pid", h.PID())
	sockfile.BestEffort(s.log, "kill launcher", h.Kill)
	if !h.Wait(killWait) {
		s.log.Error("failed to reap pglite launcher after kill", "pid", h.PID())
	}
}

// Restart stops the server if running, then starts it again. Only a restart
// that ends with a running server counts as one.
func (s *Supervisor) Restart() error {
	if s.IsRunning() {
		s.Stop()
	}
	if err := s.Start(); err != nil {
		return err
	}
	metrics.Restarts.Inc()
	return nil
}

// IsRunning polls the OS: a handle is held and the child has not exited.
func (s *Supervisor) IsRunning() bool {
	return s.handle != nil && s.handle.Alive()
}

// State returns the current lifecycle tag.
func (s *Supervisor) State() State { return s.state }

// WaitForReady retries an application-level postgres-protocol ping until the
// engine serves requests. Distinct from the startup socket check: the socket
// can accept connects slightly before queries succeed. Reports failure only
// through the boolean, by contract.
func (s *Supervisor) WaitForReady(maxAttempts int, delay time.Duration) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), readyProbeTimeout)
		err := s.readyProbe.Check(ctx)
		cancel()
		if err == nil {
			s.log.Info("database ready", "attempts", attempt)
			s.clock.Sleep(readyStability)
			return true
		}
		s.log.Warn("database not ready", "attempt", attempt, "max_attempts", maxAttempts, "err", err)
		if attempt < maxAttempts {
			s.clock.Sleep(delay)
		}
	}
	s.log.Error("database failed to become ready", "attempts", maxAttempts)
	return false
}

// ConnectionString returns the URL-form connection string, gated on liveness.
func (s *Supervisor) ConnectionString() (string, error) {
	if !s.IsRunning() {
		return "", fmt.Errorf("get connection string: %w", ErrNotRunning)
	}
	return s.cfg.ConnectionString(), nil
}

// DSN returns the key/value connection string, gated on liveness.
func (s *Supervisor) DSN() (string, error) {
	if !s.IsRunning() {
		return "", fmt.Errorf("get dsn: %w", ErrNotRunning)
	}
	return s.cfg.DSN(), nil
}

// URI returns the postgresql:// URI, gated on liveness.
func (s *Supervisor) URI() (string, error) {
	if !s.IsRunning() {
		return "", fmt.Errorf("get uri: %w", ErrNotRunning)
	}
	return s.cfg.URI(), nil
}

// Config exposes the immutable configuration.
func (s *Supervisor) Config() *config.Config { return s.cfg }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
