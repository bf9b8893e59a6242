package supervisor

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotRunning is returned by accessors that require a live server.
var ErrNotRunning = errors.New("pglite server is not running, call Start first")

// StartupError reports that the launcher exited or failed to become ready
// within the configured timeout. Output carries the child's combined
// stdout/stderr, truncated for diagnostics.
type StartupError struct {
	Reason  string
	Output  string
	Elapsed time.Duration
}

func (e *StartupError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("pglite startup failed after %s: %s; output: %s", e.Elapsed.Round(time.Millisecond), e.Reason, e.Output)
	}
	return fmt.Sprintf("pglite startup failed after %s: %s", e.Elapsed.Round(time.Millisecond), e.Reason)
}
