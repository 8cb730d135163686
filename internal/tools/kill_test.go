package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/breeze-rmm/procmcp/internal/audit"
	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/termination"
)

func newTestAudit(t *testing.T) (*audit.Logger, string) {
	t.Helper()

	cfg := config.Default()
	cfg.AuditDir = t.TempDir()
	logger, err := audit.NewLogger(cfg)
	if err != nil {
		t.Fatalf("audit.NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, filepath.Join(cfg.AuditDir, "audit.jsonl")
}

func readAuditEntries(t *testing.T, path string) []audit.Entry {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var entries []audit.Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e audit.Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal audit entry: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestKillSuccessOutput(t *testing.T) {
	killer := &fakeKiller{result: termination.Result{PID: 2200, Name: "chrome", Forced: false}}
	tool := NewKillTool(Deps{Killer: killer})

	_, out, err := tool.Handler(context.Background(), nil, KillInput{PID: 2200})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if !out.Success {
		t.Fatalf("Success = false, message %q", out.Message)
	}
	if out.PID != 2200 || out.Name != "chrome" {
		t.Fatalf("result = %d/%q, want 2200/chrome", out.PID, out.Name)
	}
	if out.Forced {
		t.Fatal("Forced = true, want false")
	}
	if out.ErrorKind != "" || out.Message != "" {
		t.Fatalf("error fields populated on success: %q %q", out.ErrorKind, out.Message)
	}
}

func TestKillDefaultsResolveToFalse(t *testing.T) {
	killer := &fakeKiller{result: termination.Result{PID: 5, Name: "x"}}
	tool := NewKillTool(Deps{Killer: killer})

	tool.Handler(context.Background(), nil, KillInput{PID: 5})
	if killer.lastReq.Force || killer.lastReq.OverrideProtection {
		t.Fatalf("request = %+v, want force and override false", killer.lastReq)
	}

	tool.Handler(context.Background(), nil, KillInput{PID: 5, Force: boolPtr(true), OverrideProtection: boolPtr(true)})
	if !killer.lastReq.Force || !killer.lastReq.OverrideProtection {
		t.Fatalf("request = %+v, want force and override true", killer.lastReq)
	}
}

func TestKillFailureOutputShape(t *testing.T) {
	killer := &fakeKiller{err: procerr.New(procerr.KindNotFound, "process 42 not found")}
	tool := NewKillTool(Deps{Killer: killer})

	_, out, err := tool.Handler(context.Background(), nil, KillInput{PID: 42})
	if err != nil {
		t.Fatalf("Handler() returned protocol error = %v, want structured payload", err)
	}
	if out.Success {
		t.Fatal("Success = true, want false")
	}
	if out.ErrorKind != string(procerr.KindNotFound) {
		t.Fatalf("ErrorKind = %q, want NotFoundError", out.ErrorKind)
	}
	if out.Message == "" {
		t.Fatal("Message is empty")
	}
	// Failure payloads carry only success, error_kind and message.
	if out.PID != 0 || out.Name != "" || out.Forced {
		t.Fatalf("result fields populated on failure: %+v", out)
	}
}

func TestKillAuditTrailOnSuccess(t *testing.T) {
	auditLog, path := newTestAudit(t)
	killer := &fakeKiller{result: termination.Result{PID: 2200, Name: "chrome", Forced: true}}
	tool := NewKillTool(Deps{Killer: killer, Audit: auditLog})

	tool.Handler(context.Background(), nil, KillInput{PID: 2200, Force: boolPtr(true)})

	entries := readAuditEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].EventType != audit.EventKillRequested {
		t.Fatalf("entries[0] = %q, want %q", entries[0].EventType, audit.EventKillRequested)
	}
	if entries[1].EventType != audit.EventKillSucceeded {
		t.Fatalf("entries[1] = %q, want %q", entries[1].EventType, audit.EventKillSucceeded)
	}
	if entries[0].RequestID == "" || entries[0].RequestID != entries[1].RequestID {
		t.Fatalf("request ids = %q / %q, want matching non-empty", entries[0].RequestID, entries[1].RequestID)
	}
	if _, err := uuid.Parse(entries[0].RequestID); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", entries[0].RequestID, err)
	}
	if entries[1].Details["forced"] != true {
		t.Fatalf("succeeded details = %v, want forced=true", entries[1].Details)
	}
}

func TestKillAuditDeniedEvent(t *testing.T) {
	auditLog, path := newTestAudit(t)
	killer := &fakeKiller{err: procerr.New(procerr.KindProtected, "process 1 is protected")}
	tool := NewKillTool(Deps{Killer: killer, Audit: auditLog})

	_, out, _ := tool.Handler(context.Background(), nil, KillInput{PID: 1})
	if out.ErrorKind != string(procerr.KindProtected) {
		t.Fatalf("ErrorKind = %q, want ProtectedProcessError", out.ErrorKind)
	}

	entries := readAuditEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[1].EventType != audit.EventKillDenied {
		t.Fatalf("entries[1] = %q, want %q", entries[1].EventType, audit.EventKillDenied)
	}
	if entries[1].Details["error_kind"] != string(procerr.KindProtected) {
		t.Fatalf("denied details = %v, want error_kind=ProtectedProcessError", entries[1].Details)
	}
}

func TestKillAuditFailedEventForTimeout(t *testing.T) {
	auditLog, path := newTestAudit(t)
	killer := &fakeKiller{err: procerr.New(procerr.KindTimeout, "process 9 still running")}
	tool := NewKillTool(Deps{Killer: killer, Audit: auditLog})

	tool.Handler(context.Background(), nil, KillInput{PID: 9})

	entries := readAuditEntries(t, path)
	if entries[1].EventType != audit.EventKillFailed {
		t.Fatalf("entries[1] = %q, want %q", entries[1].EventType, audit.EventKillFailed)
	}
}

func TestKillWithoutAuditLogger(t *testing.T) {
	killer := &fakeKiller{result: termination.Result{PID: 7, Name: "sleeper"}}
	tool := NewKillTool(Deps{Killer: killer}) // Audit nil: audit_enabled=false

	_, out, err := tool.Handler(context.Background(), nil, KillInput{PID: 7})
	if err != nil || !out.Success {
		t.Fatalf("Handler() = %+v, %v, want success with nil audit", out, err)
	}
}
