// Package slot implements the single-entry staging slots: next-to-run and
// active. A slot holds a copy of an entry plus a validity flag; fields change
// only under the slot lock and validity flips last.
package slot

import (
	"sync"

	"github.com/viant/hds/model/process"
)

// Slot holds at most one entry.
type Slot struct {
	name  string
	mu    sync.Mutex
	entry process.Entry
	valid bool
}

// New creates an invalid slot.
func New(name string) *Slot {
	return &Slot{name: name}
}

// Name returns the slot name.
func (s *Slot) Name() string {
	return s.name
}

// Valid reports whether the slot holds a live entry.
func (s *Slot) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Peek returns a copy of the held entry, or nil.
func (s *Slot) Peek() *process.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return nil
	}
	return s.entry.Clone()
}

// Priority returns the held entry priority.
func (s *Slot) Priority() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry.Priority, s.valid
}

// Install copies entry into the slot, replacing whatever it held.
func (s *Slot) Install(entry *process.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.install(entry)
}

func (s *Slot) install(entry *process.Entry) {
	s.entry = *entry
	s.valid = true
}

// Offer installs candidate when the slot is empty or holds a strictly less
// urgent entry. The replaced entry, if any, is returned as displaced.
func (s *Slot) Offer(candidate *process.Entry) (displaced *process.Entry, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid {
		if s.entry.Priority <= candidate.Priority {
			return nil, false
		}
		displaced = s.entry.Clone()
	}
	s.install(candidate)
	return displaced, true
}

// Update applies fn to the held entry. It reports false on an invalid slot.
func (s *Slot) Update(fn func(entry *process.Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return false
	}
	fn(&s.entry)
	return true
}

// Take returns the held entry and invalidates the slot.
func (s *Slot) Take() *process.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.take()
}

func (s *Slot) take() *process.Entry {
	if !s.valid {
		return nil
	}
	ret := s.entry.Clone()
	s.entry = process.Entry{}
	s.valid = false
	return ret
}

// Invalidate empties the slot.
func (s *Slot) Invalidate() {
	s.Take()
}

// Promote moves the next entry into active when active is empty, or when the
// next entry is strictly more urgent. A replaced active entry is returned as
// preempted. Next is locked before active.
func Promote(next, active *Slot) (preempted *process.Entry, promoted bool) {
	next.mu.Lock()
	defer next.mu.Unlock()
	active.mu.Lock()
	defer active.mu.Unlock()
	if !next.valid {
		return nil, false
	}
	if active.valid {
		if next.entry.Priority >= active.entry.Priority {
			return nil, false
		}
		preempted = active.take()
	}
	active.install(next.take())
	return preempted, true
}
