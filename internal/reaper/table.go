package reaper

import (
	"fmt"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// OSTable is the gopsutil-backed process table.
type OSTable struct{}

func (OSTable) Snapshot() ([]ProcessInfo, error) {
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// Cmdline and Cwd fail for processes we cannot inspect; such rows
		// can never match a conflict, so skip them quietly.
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		cwd, _ := p.Cwd()
		out = append(out, ProcessInfo{PID: p.Pid, Cmdline: cmdline, Cwd: cwd})
	}
	return out, nil
}

func (OSTable) Kill(pid int32, wait time.Duration) error {
	p, err := gopsproc.NewProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Kill(); err != nil {
		return err
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		running, err := p.IsRunning()
		if err != nil || !running {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("process %d still running %s after kill", pid, wait)
}
