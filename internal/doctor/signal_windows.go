//go:build windows

package doctor

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// SignalCheck verifies a process handle with terminate rights can be
// opened, probing this process so nothing is actually signaled.
type SignalCheck struct{}

func (c *SignalCheck) Name() string { return "signal delivery" }

func (c *SignalCheck) Run(ctx context.Context, env *Env) *CheckResult {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(os.Getpid()))
	if err != nil {
		return &CheckResult{
			Status:  StatusError,
			Message: fmt.Sprintf("cannot open own process with terminate rights: %v", err),
		}
	}
	windows.CloseHandle(handle)
	return &CheckResult{Status: StatusOK, Message: "terminate handle probe succeeded"}
}
