//go:build windows

package proctable

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// physicalBytes reports the working set, the closest Windows equivalent
// of a physical-memory footprint.
func physicalBytes(ctx context.Context, p *process.Process) (uint64, bool) {
	mi, err := p.MemoryInfoWithContext(ctx)
	if err != nil || mi == nil {
		return 0, false
	}
	return mi.RSS, mi.RSS > 0
}
