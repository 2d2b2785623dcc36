package config

import (
	"sync"
	"sync/atomic"
)

// Watcher is notified whenever Storage publishes a new Snapshot. snap
// is the newly current snapshot; changed lists the option keys whose
// value differs from the previous snapshot.
type Watcher func(snap *Snapshot, changed []string)

// Storage holds the currently published Snapshot and fans out change
// notifications to registered watchers. Reads of Current are lock-free;
// Refresh and Watch serialize against each other.
type Storage struct {
	manager  *Manager
	current  atomic.Pointer[Snapshot]
	mu       sync.Mutex
	watchers []Watcher
}

// NewStorage builds a Storage around manager, publishing an initial
// revision-1 snapshot immediately.
func NewStorage(manager *Manager) *Storage {
	s := &Storage{manager: manager}
	snap, _ := manager.UpdateIfChanged(nil)
	s.current.Store(snap)
	return s
}

// Current returns the most recently published Snapshot.
func (s *Storage) Current() *Snapshot {
	return s.current.Load()
}

// Watch registers w to be called on every future published change.
// Watch does not replay the current snapshot; callers that need the
// initial state should call Current() first.
func (s *Storage) Watch(w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, w)
}

// ApplyFiles forwards files to the manager's provider chain and then
// refreshes. It is the entry point OpAMP delivery calls into.
func (s *Storage) ApplyFiles(files ConfigFiles) {
	s.manager.ApplyFiles(files)
	s.Refresh()
}

// Refresh re-resolves the provider chain and, if the result differs
// from the current snapshot, publishes it and notifies watchers.
// Returns true if a new snapshot was published.
func (s *Storage) Refresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next, changed := s.manager.UpdateIfChanged(prev)
	if !changed {
		return false
	}
	s.current.Store(next)

	changedKeys := next.Diff(prev)
	for _, w := range s.watchers {
		w(next, changedKeys)
	}
	return true
}
