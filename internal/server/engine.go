package server

import (
	"context"
	"fmt"
	"time"

	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/protect"
	"github.com/breeze-rmm/procmcp/internal/termination"
	"github.com/breeze-rmm/procmcp/internal/workerpool"
)

// collectQueueSize bounds the per-snapshot fan-out backlog. Submit falls
// back to inline execution when the queue is full, so this only tunes how
// much of a large process table runs on the pool.
const collectQueueSize = 1024

// Engine wires the process table, protection policy and termination
// controller the way every entry point (MCP server, one-shot listing,
// doctor) needs them.
type Engine struct {
	Policy     *protect.Policy
	Pool       *workerpool.Pool
	Table      proctable.Table
	Controller *termination.Controller
}

// NewEngine assembles the process engine from configuration.
func NewEngine(cfg *config.Config) (*Engine, error) {
	policy := protect.New(
		protect.WithSystemUsers(cfg.SystemUsers),
		protect.WithProtectedNames(cfg.ProtectedNames),
	)
	if cfg.ProtectPolicyFile != "" {
		if err := policy.LoadPolicyFile(cfg.ProtectPolicyFile); err != nil {
			return nil, fmt.Errorf("load protect policy: %w", err)
		}
	}

	pool := workerpool.New(cfg.CollectWorkers, collectQueueSize)
	table := proctable.NewSystemTable(policy, pool, time.Duration(cfg.CPUSampleMs)*time.Millisecond)
	controller := termination.NewController(table, &termination.OSSignaler{}, policy,
		time.Duration(cfg.KillWaitMs)*time.Millisecond)

	return &Engine{
		Policy:     policy,
		Pool:       pool,
		Table:      table,
		Controller: controller,
	}, nil
}

// Close drains the collection pool, respecting the context deadline.
func (e *Engine) Close(ctx context.Context) {
	e.Pool.Shutdown(ctx)
}
