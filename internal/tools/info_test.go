package tools

import (
	"context"
	"testing"

	"github.com/breeze-rmm/procmcp/internal/procerr"
)

func TestInfoReturnsDetailRecord(t *testing.T) {
	table := sampleTable()
	table.records[1].Exe = "/usr/bin/postgres"
	table.records[1].PPID = 1
	table.records[1].Threads = 6
	table.records[1].CreateTimeMs = 1700000000000
	tool := NewInfoTool(Deps{Table: table})

	_, out, err := tool.Handler(context.Background(), nil, InfoInput{PID: 800})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if out.Error != nil {
		t.Fatalf("Error = %+v, want nil", out.Error)
	}
	if out.Process == nil {
		t.Fatal("Process is nil")
	}
	if out.Process.Name != "postgres" {
		t.Fatalf("Name = %q, want postgres", out.Process.Name)
	}
	if out.Process.Exe != "/usr/bin/postgres" {
		t.Fatalf("Exe = %q, want /usr/bin/postgres", out.Process.Exe)
	}
	if out.Process.Threads != 6 {
		t.Fatalf("Threads = %d, want 6", out.Process.Threads)
	}
}

func TestInfoAbsentPidNotFound(t *testing.T) {
	tool := NewInfoTool(Deps{Table: sampleTable()})

	_, out, err := tool.Handler(context.Background(), nil, InfoInput{PID: 999999})
	if err != nil {
		t.Fatalf("Handler() returned protocol error = %v, want structured payload", err)
	}
	if out.Process != nil {
		t.Fatalf("Process = %+v, want nil", out.Process)
	}
	if out.Error == nil || out.Error.Kind != string(procerr.KindNotFound) {
		t.Fatalf("Error = %+v, want NotFoundError", out.Error)
	}
}

func TestInfoNonPositivePidRejected(t *testing.T) {
	tool := NewInfoTool(Deps{Table: sampleTable()})

	for _, pid := range []int32{0, -7} {
		_, out, _ := tool.Handler(context.Background(), nil, InfoInput{PID: pid})
		if out.Error == nil || out.Error.Kind != string(procerr.KindInvalidArg) {
			t.Fatalf("pid %d: Error = %+v, want InvalidArgumentError", pid, out.Error)
		}
	}
}
