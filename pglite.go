// Package pglite supervises a PGlite embedded-postgres server process as an
// ephemeral fixture for automated tests: it provisions a node workspace,
// spawns the generated launcher, waits for the unix-domain socket to accept
// postgres-protocol connections, and tears the child down deterministically.
package pglite

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/pglite/internal/config"
	"github.com/loykin/pglite/internal/metrics"
	"github.com/loykin/pglite/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type State = supervisor.State

const (
	StateNotStarted = supervisor.StateNotStarted
	StateStarting   = supervisor.StateStarting
	StateRunning    = supervisor.StateRunning
	StateStopping   = supervisor.StateStopping
	StateStopped    = supervisor.StateStopped
	StateFailed     = supervisor.StateFailed
)

type StartupError = supervisor.StartupError

var ErrNotRunning = supervisor.ErrNotRunning

// Options injects alternate capabilities (logger, launcher, process table,
// clock, probes) for embedders and tests.
type Options = supervisor.Options

// Manager is a thin facade over the internal supervisor. One Manager owns at
// most one child process; callers serialize Start/Stop/Restart on it.
type Manager struct{ inner *supervisor.Supervisor }

// New returns a Manager for the given config; nil means defaults.
func New(c *Config) *Manager {
	return &Manager{inner: supervisor.New(c)}
}

// NewWithOptions returns a Manager with injected capabilities.
func NewWithOptions(c *Config, opts Options) *Manager {
	return &Manager{inner: supervisor.NewWithOptions(c, opts)}
}

// DefaultConfig returns the standard fixture configuration.
func DefaultConfig() *Config { return cfg.Default() }

// LoadConfig reads a TOML config file merged over the defaults.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

func (m *Manager) Start() error   { return m.inner.Start() }
func (m *Manager) Stop()          { m.inner.Stop() }
func (m *Manager) Restart() error { return m.inner.Restart() }
func (m *Manager) IsRunning() bool {
	return m.inner.IsRunning()
}
func (m *Manager) State() State { return m.inner.State() }

// WaitForReady retries a postgres-protocol ping until the engine serves
// requests; use it as a secondary gate after Start returns.
func (m *Manager) WaitForReady(maxAttempts int, delay time.Duration) bool {
	return m.inner.WaitForReady(maxAttempts, delay)
}

func (m *Manager) ConnectionString() (string, error) { return m.inner.ConnectionString() }
func (m *Manager) DSN() (string, error)              { return m.inner.DSN() }
func (m *Manager) URI() (string, error)              { return m.inner.URI() }
func (m *Manager) Config() *Config                   { return m.inner.Config() }

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
