package reaper

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

const artifact = "pglite_manager.js"

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestConflictsMatchesSameDir(t *testing.T) {
	procs := []ProcessInfo{
		{PID: 1, Cmdline: "node pglite_manager.js", Cwd: "/tmp/pglite-1"},
	}
	got := Conflicts(procs, artifact, "/tmp/pglite-1")
	if len(got) != 1 || got[0].PID != 1 {
		t.Fatalf("expected pid 1 matched, got %+v", got)
	}
}

func TestConflictsMatchesNestedDirsBothWays(t *testing.T) {
	procs := []ProcessInfo{
		{PID: 1, Cmdline: "node pglite_manager.js", Cwd: "/srv/fixtures"},
		{PID: 2, Cmdline: "node pglite_manager.js", Cwd: "/srv/fixtures/a/deep/workdir"},
	}
	if got := Conflicts(procs, artifact, "/srv/fixtures/a"); len(got) != 2 {
		t.Fatalf("expected both nested and parent cwds matched, got %+v", got)
	}
}

func TestConflictsIgnoresDistinctDirs(t *testing.T) {
	// Two supervisors with distinct socket dirs must never reap each other.
	procs := []ProcessInfo{
		{PID: 1, Cmdline: "node pglite_manager.js", Cwd: "/tmp/fixture-one"},
	}
	if got := Conflicts(procs, artifact, "/tmp/fixture-two"); len(got) != 0 {
		t.Fatalf("expected no match across distinct dirs, got %+v", got)
	}
}

func TestConflictsIgnoresUnrelatedCommands(t *testing.T) {
	procs := []ProcessInfo{
		{PID: 1, Cmdline: "node server.js", Cwd: "/tmp/pglite-1"},
		{PID: 2, Cmdline: "", Cwd: "/tmp/pglite-1"},
		{PID: 3, Cmdline: "node pglite_manager.js", Cwd: ""},
	}
	if got := Conflicts(procs, artifact, "/tmp/pglite-1"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

type fakeTable struct {
	procs   []ProcessInfo
	killed  []int32
	failPID int32
}

func (f *fakeTable) Snapshot() ([]ProcessInfo, error) { return f.procs, nil }
func (f *fakeTable) Kill(pid int32, _ time.Duration) error {
	if pid == f.failPID {
		return errors.New("access denied")
	}
	f.killed = append(f.killed, pid)
	return nil
}

func TestReapKillsConflicts(t *testing.T) {
	tbl := &fakeTable{procs: []ProcessInfo{
		{PID: 10, Cmdline: "node pglite_manager.js", Cwd: "/tmp/x"},
		{PID: 11, Cmdline: "vim notes.txt", Cwd: "/tmp/x"},
	}}
	r := Reaper{Table: tbl, Log: discard()}
	if n := r.Reap(artifact, "/tmp/x"); n != 1 {
		t.Fatalf("expected 1 killed, got %d", n)
	}
	if len(tbl.killed) != 1 || tbl.killed[0] != 10 {
		t.Fatalf("expected pid 10 killed, got %v", tbl.killed)
	}
}

func TestReapContinuesPastKillErrors(t *testing.T) {
	tbl := &fakeTable{
		procs: []ProcessInfo{
			{PID: 10, Cmdline: "node pglite_manager.js", Cwd: "/tmp/x"},
			{PID: 20, Cmdline: "node pglite_manager.js", Cwd: "/tmp/x"},
		},
		failPID: 10,
	}
	r := Reaper{Table: tbl, Log: discard()}
	if n := r.Reap(artifact, "/tmp/x"); n != 1 {
		t.Fatalf("expected 1 killed despite error, got %d", n)
	}
	if len(tbl.killed) != 1 || tbl.killed[0] != 20 {
		t.Fatalf("expected pid 20 killed, got %v", tbl.killed)
	}
}

type errTable struct{}

func (errTable) Snapshot() ([]ProcessInfo, error) { return nil, errors.New("no /proc") }
func (errTable) Kill(int32, time.Duration) error  { return nil }

func TestReapSurvivesSnapshotFailure(t *testing.T) {
	r := Reaper{Table: errTable{}, Log: discard()}
	if n := r.Reap(artifact, "/tmp/x"); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
