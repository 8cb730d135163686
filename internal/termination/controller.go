// Package termination drives the kill state machine: resolve the pid,
// apply the self and protection guards, signal, then verify the process
// actually left the table.
package termination

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/protect"
)

var log = logging.L("termination")

const (
	// DefaultGracefulWait bounds how long a graceful kill waits for
	// the process to exit before reporting a timeout.
	DefaultGracefulWait = 1500 * time.Millisecond

	// forcedWait is the reap allowance after a forceful kill. The
	// signal is not refusable, but the table needs a moment to drop
	// the entry.
	forcedWait = 500 * time.Millisecond

	pollInterval = 50 * time.Millisecond
)

// Request is one kill attempt.
type Request struct {
	PID   int32
	Force bool
	// OverrideProtection lifts the system-process guard. It never
	// lifts the self-termination guard.
	OverrideProtection bool
}

// Result confirms a termination, carrying the identity captured at
// resolve time.
type Result struct {
	PID    int32
	Name   string
	Forced bool
}

// Controller owns the per-request state machine. Safe for concurrent
// use; requests targeting the same pid serialize on a keyed mutex.
type Controller struct {
	table        proctable.Table
	signaler     Signaler
	policy       *protect.Policy
	gracefulWait time.Duration
	locks        *pidLocks
}

// NewController wires the termination engine. A non-positive
// gracefulWait falls back to DefaultGracefulWait.
func NewController(table proctable.Table, signaler Signaler, policy *protect.Policy, gracefulWait time.Duration) *Controller {
	if gracefulWait <= 0 {
		gracefulWait = DefaultGracefulWait
	}
	return &Controller{
		table:        table,
		signaler:     signaler,
		policy:       policy,
		gracefulWait: gracefulWait,
		locks:        newPidLocks(),
	}
}

// Kill runs resolve, guard, signal, verify for one request.
func (c *Controller) Kill(ctx context.Context, req Request) (Result, error) {
	if req.PID <= 0 {
		return Result{}, procerr.New(procerr.KindInvalidArg, "pid must be positive, got %d", req.PID)
	}

	unlock := c.locks.lock(req.PID)
	defer unlock()

	rec, err := c.table.Resolve(ctx, req.PID)
	if err != nil {
		if procerr.KindOf(err) == "" {
			err = procerr.Wrap(procerr.KindNotFound, err, "process %d not found", req.PID)
		}
		return Result{}, err
	}

	// Self guard runs first: no flag lifts it.
	if req.PID == c.table.SelfPID() {
		return Result{}, procerr.New(procerr.KindSelf, "refusing to terminate the server's own process (pid %d)", req.PID)
	}

	if !req.OverrideProtection && (rec.IsSystem || c.policy.Protected(rec.Name, rec.User)) {
		log.Warn("kill denied by protection guard", logging.KeyPID, req.PID, "name", rec.Name, "user", rec.User)
		return Result{}, procerr.New(procerr.KindProtected,
			"process %d (%s, user %s) is protected; set override_protection to kill it anyway", req.PID, rec.Name, rec.User)
	}

	result := Result{PID: req.PID, Name: rec.Name, Forced: req.Force}

	if err := c.signaler.Signal(ctx, req.PID, req.Force); err != nil {
		switch {
		case vanished(err):
			// Exited between resolve and signal: goal state reached.
			log.Info("process exited before signal delivery", logging.KeyPID, req.PID, "name", rec.Name)
			return result, nil
		case errors.Is(err, os.ErrPermission):
			return Result{}, procerr.Wrap(procerr.KindPermission, err, "not permitted to signal process %d (%s)", req.PID, rec.Name)
		default:
			if alive, aerr := c.table.Alive(ctx, req.PID); aerr == nil && !alive {
				return result, nil
			}
			// Signal refused on a live process. Outside the vanish
			// race this is an OS policy refusing the caller.
			return Result{}, procerr.Wrap(procerr.KindPermission, err, "could not signal process %d (%s)", req.PID, rec.Name)
		}
	}

	wait := c.gracefulWait
	if req.Force {
		wait = forcedWait
	}
	if c.awaitExit(ctx, req.PID, wait) {
		log.Info("process terminated", logging.KeyPID, req.PID, "name", rec.Name, "forced", req.Force)
		return result, nil
	}

	if req.Force {
		return Result{}, procerr.New(procerr.KindTimeout,
			"process %d (%s) still present %s after forceful kill", req.PID, rec.Name, wait)
	}
	return Result{}, procerr.New(procerr.KindTimeout,
		"process %d (%s) did not exit within %s; retry with force=true", req.PID, rec.Name, wait)
}

// awaitExit polls until the process is gone or the wait elapses.
// Zombies count as gone: the process is dead, its parent just has not
// reaped it.
func (c *Controller) awaitExit(ctx context.Context, pid int32, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		if alive, err := c.table.Alive(ctx, pid); err == nil && !alive {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		step := pollInterval
		if remaining < step {
			step = remaining
		}
		select {
		case <-time.After(step):
		case <-ctx.Done():
			return false
		}
	}
}

// vanished reports the signal errors that mean the target was already
// gone.
func vanished(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, syscall.ESRCH)
}
