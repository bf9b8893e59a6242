// Package sockfile owns socket-file hygiene: a stale socket file is only a
// signal that some prior run bound the endpoint, never proof of liveness, so
// removal is always best-effort and never fails the caller.
package sockfile

import (
	"log/slog"
	"os"
)

// Remove deletes the socket file at path if it exists. Errors are logged and
// swallowed; this runs in idempotent-start and unconditional-teardown paths
// that must not cascade into secondary failures.
func Remove(path string, log *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Warn("failed to clean up socket", "path", path, "err", err)
		return
	}
	log.Info("cleaned up socket", "path", path)
}

// BestEffort runs fn and downgrades any error to a warning log. Teardown
// helpers share this instead of repeating attempt-catch-log-continue inline.
func BestEffort(log *slog.Logger, op string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn(op+" failed", "err", err)
	}
}
