package workflow

import "sync"

// BusinessLocker serializes in-process work per business.
type BusinessLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBusinessLocker() *BusinessLocker {
	return &BusinessLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the business is free and returns the unlock func.
func (l *BusinessLocker) Lock(businessId string) func() {
	l.mu.Lock()
	m, ok := l.locks[businessId]
	if !ok {
		m = &sync.Mutex{}
		l.locks[businessId] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
