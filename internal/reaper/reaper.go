// Package reaper reclaims leftover launcher processes before a fresh start.
// A conflicting child holds the socket path open; killing it first is the
// only way to trust the endpoint directory is free.
package reaper

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// ProcessInfo is one row of a process-table snapshot.
type ProcessInfo struct {
	PID     int32
	Cmdline string
	Cwd     string
}

// Table reads the OS process table and terminates processes. The real
// implementation lives in table.go; tests use fakes.
type Table interface {
	Snapshot() ([]ProcessInfo, error)
	// Kill terminates pid forcibly and waits up to wait for it to exit.
	Kill(pid int32, wait time.Duration) error
}

// Conflicts returns the processes that look like a launcher bound under
// socketDir: the command line references the artifact file name and the
// working directory and socket directory contain each other in either
// direction. The bidirectional containment is a deliberate heuristic kept
// from the original behavior; it tolerates nested or parent relationships
// but can over-match shared prefixes.
func Conflicts(procs []ProcessInfo, artifact, socketDir string) []ProcessInfo {
	name := filepath.Base(artifact)
	var out []ProcessInfo
	for _, p := range procs {
		if p.Cmdline == "" || !strings.Contains(p.Cmdline, name) {
			continue
		}
		// A process whose cwd is unreadable (or already gone) reports "".
		// An empty string satisfies containment vacuously, so such
		// candidates are skipped instead of killed on cmdline alone.
		if p.Cwd == "" {
			continue
		}
		if strings.Contains(p.Cwd, socketDir) || strings.Contains(socketDir, p.Cwd) {
			out = append(out, p)
		}
	}
	return out
}

// Reaper kills conflicting launcher processes. All failures are logged and
// skipped: a candidate may exit on its own or belong to another user, and
// neither should abort the start sequence.
type Reaper struct {
	Table Table
	Log   *slog.Logger
	// KillWait bounds the per-process wait after a kill. Zero means 5s.
	KillWait time.Duration
}

// Reap terminates every conflicting process and reports how many were killed.
func (r Reaper) Reap(artifact, socketDir string) int {
	wait := r.KillWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	procs, err := r.Table.Snapshot()
	if err != nil {
		r.Log.Warn("failed to scan process table for conflicts", "err", err)
		return 0
	}
	killed := 0
	for _, p := range Conflicts(procs, artifact, socketDir) {
		r.Log.Info("killing conflicting launcher process", "pid", p.PID, "cwd", p.Cwd)
		if err := r.Table.Kill(p.PID, wait); err != nil {
			// Already exited or access denied; either way it no longer blocks us.
			r.Log.Warn("failed to kill conflicting process", "pid", p.PID, "err", err)
			continue
		}
		killed++
	}
	return killed
}
