package payment

import (
	"fmt"
	"sync"
)

// PinLocks serialises the disposable-pin check-and-consume critical section
// per (switch id, pin) key. Requests and settlements for the same pin take
// the same lock; different pins and different devices proceed in parallel.
//
// Entries are never evicted. The map is bounded by the number of configured
// (switch, pin) pairs that ever see traffic, which is small.
type PinLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPinLocks creates an empty lock table.
func NewPinLocks() *PinLocks {
	return &PinLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the given (switch id, pin) key and returns
// the unlock function.
//
//	unlock := locks.Lock(switchID, pin)
//	defer unlock()
func (l *PinLocks) Lock(switchID string, pin int) func() {
	key := fmt.Sprintf("%s/%d", switchID, pin)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
