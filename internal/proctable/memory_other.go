//go:build !windows

package proctable

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// physicalBytes declines on platforms without a dedicated physical
// footprint counter reachable without cgo. The chain falls to RSS.
func physicalBytes(_ context.Context, _ *process.Process) (uint64, bool) {
	return 0, false
}
