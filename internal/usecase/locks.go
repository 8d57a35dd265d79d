package usecase

import "sync"

// SourceLocks serializes mutations of one source across the orchestrator and the sweeper.
type SourceLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewSourceLocks builds an empty lock table.
func NewSourceLocks() *SourceLocks {
	return &SourceLocks{locks: map[int64]*sync.Mutex{}}
}

// Lock blocks until the source is free and returns its unlock function.
// A nil table never blocks.
func (l *SourceLocks) Lock(sourceID int64) func() {
	if l == nil {
		return func() {}
	}

	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[int64]*sync.Mutex{}
	}
	m, ok := l.locks[sourceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sourceID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
