package proctable

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/protect"
	"github.com/breeze-rmm/procmcp/internal/workerpool"
)

var log = logging.L("proctable")

// DefaultSampleWindow is the CPU delta interval used when no window is
// configured.
const DefaultSampleWindow = 200 * time.Millisecond

// Table enumerates and resolves live processes. The listing and
// termination engines depend on this interface so tests can substitute
// a fake table.
type Table interface {
	// Snapshot collects one record per visible process, pid-ascending.
	Snapshot(ctx context.Context) ([]Record, error)
	// Inspect resolves a single pid to a detailed record, CPU-sampled
	// like Snapshot.
	Inspect(ctx context.Context, pid int32) (Record, error)
	// Resolve looks up identity fields for a single pid without any
	// metric sampling. Termination guards run on its result.
	Resolve(ctx context.Context, pid int32) (Record, error)
	// Alive reports whether the pid is present and not a zombie. A
	// process that remains only as an unreaped zombie is dead for
	// every caller of this package.
	Alive(ctx context.Context, pid int32) (bool, error)
	// SelfPID is the server's own process identifier.
	SelfPID() int32
}

// SystemTable reads the live OS process table through gopsutil.
type SystemTable struct {
	policy       *protect.Policy
	pool         *workerpool.Pool
	sampleWindow time.Duration
	selfPID      int32
}

// NewSystemTable builds a table backed by the real process list. pool
// may be nil, in which case per-process reads run inline. A
// non-positive sampleWindow falls back to DefaultSampleWindow.
func NewSystemTable(policy *protect.Policy, pool *workerpool.Pool, sampleWindow time.Duration) *SystemTable {
	if sampleWindow <= 0 {
		sampleWindow = DefaultSampleWindow
	}
	return &SystemTable{
		policy:       policy,
		pool:         pool,
		sampleWindow: sampleWindow,
		selfPID:      int32(os.Getpid()),
	}
}

func (t *SystemTable) SelfPID() int32 {
	return t.selfPID
}

// Alive reports presence, counting zombies as gone. An unreadable
// status on a present pid reports alive so termination keeps waiting
// instead of claiming success early.
func (t *SystemTable) Alive(ctx context.Context, pid int32) (bool, error) {
	exists, err := process.PidExistsWithContext(ctx, pid)
	if err != nil || !exists {
		return false, err
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		// Vanished between the two checks.
		return false, nil
	}
	if raw, err := p.StatusWithContext(ctx); err == nil && NormalizeStatus(raw) == StatusZombie {
		return false, nil
	}
	return true, nil
}

// Resolve reads identity fields for one pid without metric sampling.
func (t *SystemTable) Resolve(ctx context.Context, pid int32) (Record, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Record{}, procerr.Wrap(procerr.KindNotFound, err, "process %d not found", pid)
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return Record{}, procerr.Wrap(procerr.KindNotFound, err, "process %d disappeared during lookup", pid)
	}
	if runtime.GOOS == "windows" {
		if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
			name = filepath.Base(exe)
		}
	}

	r := Record{PID: pid, Name: name}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		r.User = user
	}
	r.IsSystem = t.policy.IsSystemUser(r.User)
	if raw, err := p.StatusWithContext(ctx); err == nil {
		r.Status = NormalizeStatus(raw)
	} else {
		r.Status = StatusUnknown
	}
	if cmd, err := p.CmdlineWithContext(ctx); err == nil {
		r.Cmdline = cmd
	}
	return r, nil
}

// Snapshot primes every process's CPU counter, sleeps the sample
// window, then reads all metrics in a second fanned-out pass over the
// same handles. Processes that vanish or deny access between the passes
// are skipped, never surfaced as errors.
func (t *SystemTable) Snapshot(ctx context.Context) ([]Record, error) {
	start := time.Now()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, procerr.Wrap(procerr.KindCollection, err, "enumerate processes")
	}

	// A zero-interval Percent call returns 0 and establishes the
	// baseline; the delta arrives on the next call against the same
	// handle.
	t.forEach(procs, func(_ int, p *process.Process) {
		_, _ = p.PercentWithContext(ctx, 0)
	})

	select {
	case <-time.After(t.sampleWindow):
	case <-ctx.Done():
		return nil, procerr.Wrap(procerr.KindCollection, ctx.Err(), "cpu sample interrupted")
	}

	records := make([]Record, len(procs))
	alive := make([]bool, len(procs))
	t.forEach(procs, func(i int, p *process.Process) {
		records[i], alive[i] = t.buildRecord(ctx, p)
	})

	out := make([]Record, 0, len(procs))
	for i := range records {
		if alive[i] {
			out = append(out, records[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })

	log.Debug("snapshot complete",
		"processes", len(out),
		"skipped", len(procs)-len(out),
		logging.KeyDurationMs, time.Since(start).Milliseconds())
	return out, nil
}

// Inspect resolves one pid with the detail fields filled. The CPU
// percent is delta-sampled the same way Snapshot samples it.
func (t *SystemTable) Inspect(ctx context.Context, pid int32) (Record, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Record{}, procerr.Wrap(procerr.KindNotFound, err, "process %d not found", pid)
	}

	_, _ = p.PercentWithContext(ctx, 0)
	select {
	case <-time.After(t.sampleWindow):
	case <-ctx.Done():
		return Record{}, procerr.Wrap(procerr.KindCollection, ctx.Err(), "cpu sample interrupted")
	}

	r, ok := t.buildRecord(ctx, p)
	if !ok {
		return Record{}, procerr.New(procerr.KindNotFound, "process %d disappeared during inspection", pid)
	}

	fillMemoryDetail(ctx, p, &r)
	if exe, err := p.ExeWithContext(ctx); err == nil {
		r.Exe = exe
	}
	if ppid, err := p.PpidWithContext(ctx); err == nil {
		r.PPID = ppid
	}
	if th, err := p.NumThreadsWithContext(ctx); err == nil {
		r.Threads = th
	}
	if ct, err := p.CreateTimeWithContext(ctx); err == nil {
		r.CreateTimeMs = ct
	}
	return r, nil
}

// forEach fans fn across the worker pool and returns once every
// invocation has completed. Work runs inline when the pool is absent or
// its queue is saturated so a snapshot is never partial.
func (t *SystemTable) forEach(procs []*process.Process, fn func(int, *process.Process)) {
	var wg sync.WaitGroup
	for i, p := range procs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(i, p)
		}
		if t.pool == nil || !t.pool.Submit(task) {
			task()
		}
	}
	wg.Wait()
}

// buildRecord reads the listing fields for one process. Reports false
// when the process is gone or fully unreadable, which drops it from the
// snapshot.
func (t *SystemTable) buildRecord(ctx context.Context, p *process.Process) (Record, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return Record{}, false
	}
	if runtime.GOOS == "windows" {
		// The snapshot short name can be truncated; prefer the image
		// base name when the handle allows reading it.
		if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
			name = filepath.Base(exe)
		}
	}

	r := Record{PID: p.Pid, Name: name}

	if user, err := p.UsernameWithContext(ctx); err == nil {
		r.User = user
	}
	r.IsSystem = t.policy.IsSystemUser(r.User)

	if raw, err := p.StatusWithContext(ctx); err == nil {
		r.Status = NormalizeStatus(raw)
	} else {
		r.Status = StatusUnknown
	}

	if cpu, err := p.PercentWithContext(ctx, 0); err == nil {
		r.CPUPercent = cpu
	}

	if mb, source := resolveMemoryMB(ctx, p); source != "" {
		r.setMemory(mb, source)
	}

	if cmd, err := p.CmdlineWithContext(ctx); err == nil {
		r.Cmdline = cmd
	}

	return r, true
}
