package supervisor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Handle is the supervisor's view of a spawned launcher process. Exactly one
// Handle exists per supervisor instance at any time.
type Handle interface {
	PID() int
	// Alive reports whether the child has not yet been reaped.
	Alive() bool
	// Terminate requests graceful shutdown (SIGTERM to the process group).
	Terminate() error
	// Kill forces termination (SIGKILL to the process group).
	Kill() error
	// Wait blocks up to d for the child to exit; true when it has.
	Wait(d time.Duration) bool
	// Output waits up to d for the child's pipes to settle and returns the
	// combined stdout/stderr captured so far.
	Output(d time.Duration) string
}

// Launcher spawns the launcher artifact as a child process. Real and fake
// implementations keep the start sequence testable without OS processes.
type Launcher interface {
	Start(workDir, artifact string, env []string) (Handle, error)
}

// outputCap bounds the in-memory capture of child output; diagnostics are
// truncated further before they reach errors.
const outputCap = 64 * 1024

// ExecLauncher runs "node <artifact>" via os/exec.
type ExecLauncher struct{}

func (ExecLauncher) Start(workDir, artifact string, env []string) (Handle, error) {
	// #nosec G204 -- artifact is the generated launcher inside our workspace
	cmd := exec.Command("node", artifact)
	cmd.Dir = workDir
	if len(env) > 0 {
		cmd.Env = env
	}
	// Own process group so signals reach node's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	buf := &boundedBuffer{cap: outputCap}
	cmd.Stdout = buf
	cmd.Stderr = buf
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := &execHandle{cmd: cmd, buf: buf, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type execHandle struct {
	cmd  *exec.Cmd
	buf  *boundedBuffer
	done chan struct{}
}

func (h *execHandle) PID() int { return h.cmd.Process.Pid }

func (h *execHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *execHandle) Terminate() error {
	return syscall.Kill(-h.PID(), syscall.SIGTERM)
}

func (h *execHandle) Kill() error {
	return syscall.Kill(-h.PID(), syscall.SIGKILL)
}

func (h *execHandle) Wait(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (h *execHandle) Output(d time.Duration) string {
	// Wait for the monitor to reap so the final writes are flushed, but never
	// hang on a stuck pipe longer than d.
	select {
	case <-h.done:
	case <-time.After(d):
	}
	return h.buf.String()
}

// boundedBuffer keeps the first cap bytes written and drops the rest.
// Startup diagnostics live at the beginning of the stream.
type boundedBuffer struct {
	mu  sync.Mutex
	b   []byte
	cap int
}

func (w *boundedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if room := w.cap - len(w.b); room > 0 {
		if len(p) > room {
			w.b = append(w.b, p[:room]...)
		} else {
			w.b = append(w.b, p...)
		}
	}
	return len(p), nil
}

func (w *boundedBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.b)
}
