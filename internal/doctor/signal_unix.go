//go:build !windows

package doctor

import (
	"context"
	"fmt"
	"os"
	"syscall"
)

// SignalCheck verifies signal delivery works by probing this process with
// the null signal, which performs permission checks without delivering
// anything.
type SignalCheck struct{}

func (c *SignalCheck) Name() string { return "signal delivery" }

func (c *SignalCheck) Run(ctx context.Context, env *Env) *CheckResult {
	if err := syscall.Kill(os.Getpid(), 0); err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: fmt.Sprintf("cannot signal own process: %v", err),
		}
	}
	return &CheckResult{Status: StatusOK, Message: "null signal probe succeeded"}
}
