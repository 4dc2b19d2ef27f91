package snapshot

import (
	"sync"
	"time"
)

// Store owns the published snapshot. Every mutation goes through Dispatch,
// which serializes writers under one mutex, so fetch results and live
// events never interleave mid-update. Readers get deep copies and never
// block writers beyond the copy itself.
type Store struct {
	mu           sync.Mutex
	snap         MetricSnapshot
	listeners    map[int]func(MetricSnapshot)
	nextListener int
	now          func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		listeners: make(map[int]func(MetricSnapshot)),
		now:       now,
	}
}

// Current returns a deep copy of the published snapshot.
func (s *Store) Current() MetricSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Generation returns the generation token of the published snapshot.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Generation
}

// Dispatch applies a patch to the snapshot under the store lock, stamps
// UpdatedAt, and notifies subscribers with a copy after the lock is
// released.
func (s *Store) Dispatch(patch func(*MetricSnapshot)) {
	s.mu.Lock()
	patch(&s.snap)
	s.snap.UpdatedAt = s.now().UTC()
	published := s.snap.Clone()
	listeners := make([]func(MetricSnapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(published)
	}
}

// ApplyFetch replaces the snapshot with a freshly aggregated one, unless
// a newer generation was already published. Live-merge markers carried on
// the old snapshot do not survive a replace; a full fetch supersedes them.
// Returns false when the result was discarded as stale.
func (s *Store) ApplyFetch(generation uint64, snap MetricSnapshot) bool {
	s.mu.Lock()
	if generation < s.snap.Generation {
		s.mu.Unlock()
		return false
	}
	snap.Generation = generation
	s.snap = snap
	s.snap.UpdatedAt = s.now().UTC()
	published := s.snap.Clone()
	listeners := make([]func(MetricSnapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(published)
	}
	return true
}

// Subscribe registers a listener invoked with a snapshot copy after every
// published change. The returned function removes the listener.
func (s *Store) Subscribe(fn func(MetricSnapshot)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
