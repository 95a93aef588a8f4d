package shift

import "sync"

// locks hands out one exclusive lock per process instance. Entries are
// dropped once no caller holds or waits for them.
type locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLocks() *locks {
	return &locks{entries: map[string]*lockEntry{}}
}

// acquire blocks until the instance lock is held and returns its release func
func (l *locks) acquire(id string) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		if entry.refs--; entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}

func (l *locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
