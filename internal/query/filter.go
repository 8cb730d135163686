// Package query holds the pure listing engines: predicate filtering,
// metric sort, and limit truncation. Nothing here touches the OS.
package query

import (
	"strings"

	"github.com/breeze-rmm/procmcp/internal/proctable"
)

// Filter is the request-scoped predicate set for one listing. Absent
// fields impose no constraint; present fields AND together.
type Filter struct {
	NameContains  string
	User          string
	Status        proctable.Status
	MinCPUPercent *float64
	MinMemoryMB   *float64
	// IncludeSystem must be set explicitly to see system-account
	// processes. No other field overrides the exclusion.
	IncludeSystem bool
}

// Match returns the records passing every present predicate, preserving
// input order.
func Match(records []proctable.Record, f Filter) []proctable.Record {
	out := make([]proctable.Record, 0, len(records))
	for _, r := range records {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r proctable.Record, f Filter) bool {
	if !f.IncludeSystem && r.IsSystem {
		return false
	}
	if f.NameContains != "" {
		needle := strings.ToLower(f.NameContains)
		if !strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.Cmdline), needle) {
			return false
		}
	}
	if f.User != "" {
		if !strings.Contains(strings.ToLower(r.User), strings.ToLower(f.User)) {
			return false
		}
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.MinCPUPercent != nil && r.CPUPercent < *f.MinCPUPercent {
		return false
	}
	if f.MinMemoryMB != nil && r.MemoryMB < *f.MinMemoryMB {
		return false
	}
	return true
}
