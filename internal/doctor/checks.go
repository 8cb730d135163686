package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/privilege"
)

// DefaultChecks returns the standard check set in execution order.
func DefaultChecks() []Check {
	return []Check{
		&SnapshotCheck{},
		&MetricsCheck{},
		&SignalCheck{},
		&AuditCheck{},
		&ElevationCheck{},
	}
}

// SnapshotCheck verifies the process table is readable.
type SnapshotCheck struct{}

func (c *SnapshotCheck) Name() string { return "process snapshot" }

func (c *SnapshotCheck) Run(ctx context.Context, env *Env) *CheckResult {
	records, err := env.Engine.Table.Snapshot(ctx)
	if err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: err.Error(),
			FixHint: "the process table could not be enumerated; check OS permissions",
		}
	}
	return &CheckResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d processes", len(records)),
	}
}

// MetricsCheck verifies CPU sampling and the memory strategy chain work,
// using this process as the probe target.
type MetricsCheck struct{}

func (c *MetricsCheck) Name() string { return "process metrics" }

func (c *MetricsCheck) Run(ctx context.Context, env *Env) *CheckResult {
	self, err := env.Engine.Table.Inspect(ctx, env.Engine.Table.SelfPID())
	if err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: fmt.Sprintf("cannot inspect own process: %v", err),
		}
	}
	if self.MemoryMB == 0 {
		return &CheckResult{
			Status:  StatusWarning,
			Message: "no memory strategy produced a value; memory_mb will be 0",
		}
	}
	return &CheckResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("cpu sampled, memory %.1f MB", self.MemoryMB),
	}
}

// AuditCheck verifies the audit directory is writable before the server
// needs it.
type AuditCheck struct{}

func (c *AuditCheck) Name() string { return "audit trail" }

func (c *AuditCheck) Run(ctx context.Context, env *Env) *CheckResult {
	if !env.Cfg.AuditEnabled {
		return &CheckResult{Status: StatusOK, Message: "disabled by configuration"}
	}

	dir := env.Cfg.AuditDir
	if dir == "" {
		dir = config.GetDataDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
			FixHint: "run elevated or point audit_dir at a writable path",
		}
	}

	probe, err := os.CreateTemp(dir, "doctor-*")
	if err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: fmt.Sprintf("%s is not writable: %v", dir, err),
			FixHint: "run elevated or point audit_dir at a writable path",
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return &CheckResult{Status: StatusOK, Message: dir}
}

// ElevationCheck reports whether the server can signal processes beyond
// its own user's.
type ElevationCheck struct{}

func (c *ElevationCheck) Name() string { return "elevation" }

func (c *ElevationCheck) Run(ctx context.Context, env *Env) *CheckResult {
	priv := privilege.Current()
	if priv.Elevated {
		return &CheckResult{
			Status:  StatusOK,
			Message: fmt.Sprintf("running as %s (elevated)", priv.Username),
		}
	}
	return &CheckResult{
		Status:  StatusWarning,
		Message: fmt.Sprintf("running as %s without elevation", priv.Username),
		FixHint: "processes of other users cannot be signaled; run elevated if that is needed",
	}
}
