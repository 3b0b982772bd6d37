package uptime

import (
	"sync"

	"github.com/google/uuid"
)

// monitorLocks serializes the check pipeline per monitor so an overlapping
// scheduled and manual check can never both observe the same wasDown value
// and double-apply a transition. Checks of different monitors stay fully
// concurrent.
type monitorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMonitorLocks() *monitorLocks {
	return &monitorLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *monitorLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *monitorLocks) forget(id uuid.UUID) {
	l.mu.Lock()
	delete(l.locks, id)
	l.mu.Unlock()
}
