package tools

import (
	"context"
	"sort"

	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/termination"
)

// fakeTable serves canned records so handler behavior is testable without
// touching the real process table.
type fakeTable struct {
	records     []proctable.Record
	snapshotErr error
}

func (f *fakeTable) Snapshot(ctx context.Context) ([]proctable.Record, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	out := make([]proctable.Record, len(f.records))
	copy(out, f.records)
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (f *fakeTable) Inspect(ctx context.Context, pid int32) (proctable.Record, error) {
	for _, r := range f.records {
		if r.PID == pid {
			return r, nil
		}
	}
	return proctable.Record{}, procerr.New(procerr.KindNotFound, "process %d not found", pid)
}

func (f *fakeTable) Resolve(ctx context.Context, pid int32) (proctable.Record, error) {
	return f.Inspect(ctx, pid)
}

func (f *fakeTable) Alive(ctx context.Context, pid int32) (bool, error) {
	for _, r := range f.records {
		if r.PID == pid {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTable) SelfPID() int32 { return 1 }

// fakeKiller scripts the controller outcome and captures the request.
type fakeKiller struct {
	result  termination.Result
	err     error
	lastReq termination.Request
	calls   int
}

func (f *fakeKiller) Kill(ctx context.Context, req termination.Request) (termination.Result, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return termination.Result{}, f.err
	}
	return f.result, nil
}

func sampleTable() *fakeTable {
	return &fakeTable{records: []proctable.Record{
		{PID: 1, Name: "systemd", User: "root", Status: proctable.StatusSleeping, CPUPercent: 0.1, MemoryMB: 12.0, IsSystem: true},
		{PID: 800, Name: "postgres", User: "postgres", Status: proctable.StatusSleeping, CPUPercent: 3.2, MemoryMB: 512.0, Cmdline: "/usr/bin/postgres -D /var/lib/pgsql"},
		{PID: 2200, Name: "chrome", User: "alice", Status: proctable.StatusRunning, CPUPercent: 42.5, MemoryMB: 900.5},
		{PID: 3100, Name: "vim", User: "bob", Status: proctable.StatusIdle, CPUPercent: 0.0, MemoryMB: 8.0},
	}}
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }
