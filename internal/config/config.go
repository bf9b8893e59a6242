package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/pglite/internal/extensions"
	"github.com/loykin/pglite/internal/logger"
)

// SocketFileName follows the postgres convention for unix-domain sockets so
// that standard clients resolve it from the directory alone.
const SocketFileName = ".s.PGSQL.5432"

const DefaultTimeout = 30 * time.Second

// Config describes one embedded PGlite server instance. It is built once by
// the caller and never mutated by the supervisor.
type Config struct {
	// Timeout bounds the whole startup sequence (spawn to ready socket).
	Timeout time.Duration
	// CleanupOnExit removes the socket file after Stop.
	CleanupOnExit bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFile, when set, sends supervisor logs to a rotating file
	// instead of stdout.
	LogFile string
	// SocketPath is where the launcher binds its unix-domain socket.
	// Defaults to a fresh 0700 temp directory.
	SocketPath string
	// WorkDir holds the generated launcher and its node_modules.
	// Empty means a temp directory is created per Prepare.
	WorkDir string
	// NodeModulesCheck verifies node_modules exists before launching.
	NodeModulesCheck bool
	// AutoInstallDeps runs npm install when node_modules is missing.
	AutoInstallDeps bool
	// Extensions lists PGlite extensions to wire into the launcher.
	Extensions []string
	// NodeOptions overrides NODE_OPTIONS for the child process.
	NodeOptions string
	// Env holds extra K=V overrides applied to the child environment.
	Env map[string]string
}

// Default returns a Config with the same defaults the original fixture uses:
// 30s startup timeout, cleanup on exit, auto npm install, unique socket dir.
func Default() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		CleanupOnExit:    true,
		LogLevel:         "info",
		SocketPath:       defaultSocketPath(),
		NodeModulesCheck: true,
		AutoInstallDeps:  true,
	}
}

// defaultSocketPath creates a private per-instance socket directory.
// PID plus a random suffix keeps parallel test sessions apart.
func defaultSocketPath() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("pglite-%d-%s", os.Getpid(), hex.EncodeToString(b)))
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, SocketFileName)
}

// Validate checks the configuration and resolves WorkDir to an absolute path.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SocketPath == "" {
		return fmt.Errorf("socket path must not be empty")
	}
	for _, ext := range c.Extensions {
		if _, ok := extensions.Lookup(ext); !ok {
			return fmt.Errorf("unsupported extension %q, available: %v", ext, extensions.Names())
		}
	}
	if c.WorkDir != "" {
		abs, err := filepath.Abs(c.WorkDir)
		if err != nil {
			return fmt.Errorf("resolve work dir: %w", err)
		}
		c.WorkDir = abs
	}
	return nil
}

// SocketDir returns the directory containing the socket file. Postgres
// clients take the directory as the host for unix-domain connections.
func (c *Config) SocketDir() string {
	return filepath.Dir(c.SocketPath)
}

// ConnectionString returns a URL-form postgres connection string.
func (c *Config) ConnectionString() string {
	return "postgres://postgres:postgres@/postgres?host=" + c.SocketDir()
}

// DSN returns the key/value form of the connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s dbname=postgres user=postgres password=postgres", c.SocketDir())
}

// URI returns the standard postgresql:// URI, the form libpq-style drivers
// accept verbatim.
func (c *Config) URI() string {
	return "postgresql://postgres:postgres@/postgres?host=" + c.SocketDir()
}
