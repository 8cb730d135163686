package query

import (
	"testing"

	"github.com/breeze-rmm/procmcp/internal/proctable"
)

func f64(v float64) *float64 { return &v }

var sampleRecords = []proctable.Record{
	{PID: 1, Name: "systemd", User: "root", Status: proctable.StatusSleeping, CPUPercent: 0.1, MemoryMB: 12, IsSystem: true},
	{PID: 800, Name: "postgres", User: "postgres", Status: proctable.StatusSleeping, CPUPercent: 2.5, MemoryMB: 300, Cmdline: "/usr/bin/postgres -D /data"},
	{PID: 1200, Name: "chrome", User: "alice", Status: proctable.StatusRunning, CPUPercent: 45.0, MemoryMB: 900, Cmdline: "/opt/chrome/chrome --type=renderer"},
	{PID: 1300, Name: "vim", User: "alice", Status: proctable.StatusStopped, CPUPercent: 0.0, MemoryMB: 8, Cmdline: "vim notes.txt"},
	{PID: 2000, Name: "backupd", User: "root", Status: proctable.StatusRunning, CPUPercent: 12.0, MemoryMB: 50, IsSystem: true},
}

func pids(recs []proctable.Record) []int32 {
	out := make([]int32, len(recs))
	for i, r := range recs {
		out[i] = r.PID
	}
	return out
}

func TestMatchExcludesSystemByDefault(t *testing.T) {
	got := Match(sampleRecords, Filter{})
	for _, r := range got {
		if r.IsSystem {
			t.Errorf("system record pid %d leaked through default filter", r.PID)
		}
	}
	if len(got) != 3 {
		t.Errorf("matched %d records, want 3", len(got))
	}
}

func TestMatchIncludeSystem(t *testing.T) {
	got := Match(sampleRecords, Filter{IncludeSystem: true})
	if len(got) != len(sampleRecords) {
		t.Errorf("matched %d records, want %d", len(got), len(sampleRecords))
	}
}

func TestMatchSystemExclusionBeatsOtherFilters(t *testing.T) {
	// A filter that names a system process exactly still hides it
	// unless include_system is set.
	got := Match(sampleRecords, Filter{NameContains: "systemd"})
	if len(got) != 0 {
		t.Errorf("matched %v, want none", pids(got))
	}

	got = Match(sampleRecords, Filter{NameContains: "systemd", IncludeSystem: true})
	if len(got) != 1 || got[0].PID != 1 {
		t.Errorf("matched %v, want [1]", pids(got))
	}
}

func TestMatchNameCaseInsensitive(t *testing.T) {
	got := Match(sampleRecords, Filter{NameContains: "CHROME"})
	if len(got) != 1 || got[0].PID != 1200 {
		t.Errorf("matched %v, want [1200]", pids(got))
	}
}

func TestMatchNameAgainstCmdline(t *testing.T) {
	// "renderer" appears only in chrome's command line.
	got := Match(sampleRecords, Filter{NameContains: "renderer"})
	if len(got) != 1 || got[0].PID != 1200 {
		t.Errorf("matched %v, want [1200]", pids(got))
	}
}

func TestMatchUserSubstring(t *testing.T) {
	got := Match(sampleRecords, Filter{User: "ali"})
	if len(got) != 2 {
		t.Errorf("matched %v, want [1200 1300]", pids(got))
	}
}

func TestMatchStatusExact(t *testing.T) {
	got := Match(sampleRecords, Filter{Status: proctable.StatusStopped})
	if len(got) != 1 || got[0].PID != 1300 {
		t.Errorf("matched %v, want [1300]", pids(got))
	}
}

func TestMatchThresholdsInclusive(t *testing.T) {
	got := Match(sampleRecords, Filter{MinCPUPercent: f64(2.5)})
	if len(got) != 2 {
		t.Errorf("min_cpu 2.5 matched %v, want [800 1200]", pids(got))
	}

	got = Match(sampleRecords, Filter{MinMemoryMB: f64(300)})
	if len(got) != 2 {
		t.Errorf("min_memory 300 matched %v, want [800 1200]", pids(got))
	}
}

func TestMatchFiltersANDTogether(t *testing.T) {
	got := Match(sampleRecords, Filter{
		User:          "alice",
		Status:        proctable.StatusRunning,
		MinCPUPercent: f64(10),
	})
	if len(got) != 1 || got[0].PID != 1200 {
		t.Errorf("matched %v, want [1200]", pids(got))
	}
}

func TestMatchPreservesOrder(t *testing.T) {
	got := Match(sampleRecords, Filter{IncludeSystem: true})
	for i := 1; i < len(got); i++ {
		if got[i-1].PID >= got[i].PID {
			t.Fatalf("input order not preserved: %v", pids(got))
		}
	}
}

func TestMatchZeroThresholdMatchesAll(t *testing.T) {
	got := Match(sampleRecords, Filter{MinCPUPercent: f64(0), IncludeSystem: true})
	if len(got) != len(sampleRecords) {
		t.Errorf("min_cpu 0 matched %d, want all %d", len(got), len(sampleRecords))
	}
}
