package engine

import "sync"

// UserLocks serializes access to one user's session across callers.
// Distinct users proceed in parallel; the same user's message handling
// and reminder evaluation never interleave.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock registry.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex and returns its unlock function.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// globalLocks serializes per-user work across every component in the
// process, the same way the platform shares its global registries.
var (
	globalLocks     *UserLocks
	globalLocksOnce sync.Once
)

// GlobalLocks returns the process-wide lock registry. Components that
// touch the same sessions must share it.
func GlobalLocks() *UserLocks {
	globalLocksOnce.Do(func() {
		globalLocks = NewUserLocks()
	})
	return globalLocks
}
