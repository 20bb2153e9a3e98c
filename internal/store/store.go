// Package store owns the garment configuration of one editing session.
// Writers send intents; readers get immutable snapshots.
package store

import (
	"sync"

	"garment-studio/internal/garment"
)

// Listener is called after every change with the new snapshot and its revision.
type Listener func(cfg garment.Config, rev uint64)

// Store is the single owner of a garment.Config.
type Store struct {
	mu        sync.RWMutex
	cfg       garment.Config
	rev       uint64
	listeners []Listener
}

// New creates a store holding cfg at revision 0.
func New(cfg garment.Config) *Store {
	return &Store{cfg: cfg}
}

// On registers a listener. Listeners run on the dispatching goroutine, after
// the store lock is released, in registration order.
func (s *Store) On(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current configuration. The returned value is a copy;
// later dispatches never change it.
func (s *Store) Snapshot() garment.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Revision returns the number of changes applied so far.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// SnapshotRev returns the current configuration together with the revision
// that produced it, read under one lock.
func (s *Store) SnapshotRev() (garment.Config, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.rev
}

// Dispatch applies the intents in order and notifies listeners once if
// anything changed. It reports whether the configuration changed.
func (s *Store) Dispatch(intents ...garment.Intent) bool {
	if len(intents) == 0 {
		return false
	}

	s.mu.Lock()
	next := s.cfg
	for _, in := range intents {
		next = garment.Reduce(next, in)
	}
	if next == s.cfg {
		s.mu.Unlock()
		return false
	}
	s.cfg = next
	s.rev++
	rev := s.rev
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(next, rev)
	}
	return true
}
