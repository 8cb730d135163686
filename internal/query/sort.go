package query

import (
	"sort"

	"github.com/breeze-rmm/procmcp/internal/proctable"
)

const (
	SortByCPU    = "cpu"
	SortByMemory = "memory"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortAndLimit stable-sorts records on the chosen metric and truncates
// to limit. Ties always break by ascending pid so the order is
// deterministic in either direction. The caller resolves the effective
// limit; a non-positive limit means no truncation.
func SortAndLimit(records []proctable.Record, sortBy, order string, limit int) []proctable.Record {
	out := make([]proctable.Record, len(records))
	copy(out, records)

	key := func(r proctable.Record) float64 {
		if sortBy == SortByMemory {
			return r.MemoryMB
		}
		return r.CPUPercent
	}
	asc := order == OrderAsc

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki == kj {
			return out[i].PID < out[j].PID
		}
		if asc {
			return ki < kj
		}
		return ki > kj
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
