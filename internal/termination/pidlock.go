package termination

import "sync"

// pidLocks serializes kill attempts per target pid so two simultaneous
// requests for the same process yield one success and one NotFound,
// never interleaved signals. Entries are reference-counted and removed
// when the last holder releases.
type pidLocks struct {
	mu      sync.Mutex
	entries map[int32]*pidLockEntry
}

type pidLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newPidLocks() *pidLocks {
	return &pidLocks{entries: make(map[int32]*pidLockEntry)}
}

// lock blocks until the pid's critical section is free and returns the
// release function.
func (l *pidLocks) lock(pid int32) func() {
	l.mu.Lock()
	e := l.entries[pid]
	if e == nil {
		e = &pidLockEntry{}
		l.entries[pid] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, pid)
		}
		l.mu.Unlock()
	}
}
