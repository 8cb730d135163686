package termination

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Signaler delivers the termination signal for one pid. The controller
// owns classification of the returned error; implementations return the
// OS error as-is. Tests substitute a fake.
type Signaler interface {
	Signal(ctx context.Context, pid int32, force bool) error
}

// OSSignaler signals through the live process table. Graceful delivery
// is SIGTERM on unix and TerminateProcess on Windows; force is SIGKILL
// where the platform distinguishes.
type OSSignaler struct{}

func (OSSignaler) Signal(ctx context.Context, pid int32, force bool) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	if force {
		return p.KillWithContext(ctx)
	}
	return p.TerminateWithContext(ctx)
}
