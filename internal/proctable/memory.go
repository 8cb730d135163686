package proctable

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// memStrategy reads one memory accounting metric for a process, in bytes.
// A zero value counts as not obtained so the chain moves on, matching the
// original fallback behavior.
type memStrategy struct {
	name string
	read func(ctx context.Context, p *process.Process) (uint64, bool)
}

// Ordered fallback chain: platform physical metric, then resident set,
// then unique set. The chain is a list, not per-platform branching, so
// the contract reads the same on every OS.
var memStrategies = []memStrategy{
	{"physical", physicalBytes},
	{"rss", rssBytes},
	{"uss", ussBytes},
}

func rssBytes(ctx context.Context, p *process.Process) (uint64, bool) {
	mi, err := p.MemoryInfoWithContext(ctx)
	if err != nil || mi == nil {
		return 0, false
	}
	return mi.RSS, mi.RSS > 0
}

// ussBytes sums private clean and dirty pages from the grouped memory
// maps. Kernel support is effectively Linux-only; elsewhere gopsutil
// reports not implemented and the strategy declines.
func ussBytes(ctx context.Context, p *process.Process) (uint64, bool) {
	mm, err := p.MemoryMapsWithContext(ctx, true)
	if err != nil || mm == nil || len(*mm) == 0 {
		return 0, false
	}
	// smaps values are kB and gopsutil passes them through unconverted.
	kb := (*mm)[0].PrivateClean + (*mm)[0].PrivateDirty
	return kb * 1024, kb > 0
}

func bytesToMB(b uint64) float64 {
	return float64(b) / (1024 * 1024)
}

// resolveMemoryMB walks the chain and returns the first obtainable
// metric with the strategy name that produced it.
func resolveMemoryMB(ctx context.Context, p *process.Process) (float64, string) {
	for _, s := range memStrategies {
		if b, ok := s.read(ctx, p); ok {
			return bytesToMB(b), s.name
		}
	}
	return 0, ""
}

// setMemory records the resolved metric and the per-strategy field that
// produced it.
func (r *Record) setMemory(mb float64, source string) {
	r.MemoryMB = mb
	r.setMemoryField(mb, source)
}

func (r *Record) setMemoryField(mb float64, source string) {
	switch source {
	case "physical":
		r.MemoryPhysicalMB = mb
	case "rss":
		r.MemoryRSSMB = mb
	case "uss":
		r.MemoryUSSMB = mb
	}
}

// fillMemoryDetail runs every strategy for the single-pid detail view,
// recording each metric that succeeds. The resolved MemoryMB keeps the
// chain-order value assigned during record build.
func fillMemoryDetail(ctx context.Context, p *process.Process, r *Record) {
	for _, s := range memStrategies {
		b, ok := s.read(ctx, p)
		if !ok {
			continue
		}
		mb := bytesToMB(b)
		r.setMemoryField(mb, s.name)
		if r.MemoryMB == 0 {
			r.MemoryMB = mb
		}
	}
}
