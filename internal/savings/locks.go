package savings

import "sync"

// trackerLocks hands out one mutex per tracker id so balance and streak updates
// of a tracker run one at a time inside this process. Entries are dropped once
// no goroutine holds or waits for them.
type trackerLocks struct {
	mu    sync.Mutex
	locks map[string]*trackerLock
}

type trackerLock struct {
	mu   sync.Mutex
	refs int
}

func newTrackerLocks() *trackerLocks {
	return &trackerLocks{locks: make(map[string]*trackerLock)}
}

// lock blocks until the tracker is free and returns the matching unlock.
func (l *trackerLocks) lock(trackerID string) func() {
	l.mu.Lock()
	tl, ok := l.locks[trackerID]
	if !ok {
		tl = &trackerLock{}
		l.locks[trackerID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	return func() {
		tl.mu.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, trackerID)
		}
		l.mu.Unlock()
	}
}

func (l *trackerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
