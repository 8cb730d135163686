package proctable

// Status is the canonical process state. gopsutil's raw abbreviations
// normalize to these spellings so callers filter against one vocabulary
// on every platform.
type Status string

const (
	StatusRunning  Status = "running"
	StatusSleeping Status = "sleeping"
	StatusStopped  Status = "stopped"
	StatusZombie   Status = "zombie"
	StatusIdle     Status = "idle"
	StatusWaiting  Status = "waiting"
	StatusLocked   Status = "locked"
	StatusUnknown  Status = "unknown"
)

var statusAliases = map[string]Status{
	"running":  StatusRunning,
	"sleep":    StatusSleeping,
	"sleeping": StatusSleeping,
	"stop":     StatusStopped,
	"stopped":  StatusStopped,
	"zombie":   StatusZombie,
	"idle":     StatusIdle,
	"wait":     StatusWaiting,
	"waiting":  StatusWaiting,
	// Uninterruptible sleep surfaces as "blocked"; callers see it as
	// a waiting state.
	"blocked":    StatusWaiting,
	"disk-sleep": StatusWaiting,
	"lock":       StatusLocked,
	"locked":     StatusLocked,
}

// NormalizeStatus maps a raw gopsutil status list to the canonical enum.
// gopsutil reports a list; the first entry is the primary state.
func NormalizeStatus(raw []string) Status {
	if len(raw) == 0 {
		return StatusUnknown
	}
	if s, ok := statusAliases[raw[0]]; ok {
		return s
	}
	return StatusUnknown
}

// ParseStatus maps caller-supplied filter input to the canonical enum.
// Returns false for values that name no known state.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[s]
	return st, ok
}

// Record is a read-only observation of one process, regenerated on every
// query. The OS may reuse a pid between queries, so records are never
// cached across calls.
type Record struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	User       string  `json:"user"`
	Status     Status  `json:"status"`
	CPUPercent float64 `json:"cpu_percent"`

	// MemoryMB is the resolved metric: the first strategy in the
	// physical, RSS, USS chain that produced a value.
	MemoryMB         float64 `json:"memory_mb"`
	MemoryPhysicalMB float64 `json:"memory_physical_mb,omitempty"`
	MemoryRSSMB      float64 `json:"memory_rss_mb,omitempty"`
	MemoryUSSMB      float64 `json:"memory_uss_mb,omitempty"`

	IsSystem bool   `json:"is_system"`
	Cmdline  string `json:"cmdline,omitempty"`

	// Detail fields, filled by single-pid inspection only.
	Exe          string `json:"exe,omitempty"`
	PPID         int32  `json:"ppid,omitempty"`
	Threads      int32  `json:"threads,omitempty"`
	CreateTimeMs int64  `json:"create_time_ms,omitempty"`
}
