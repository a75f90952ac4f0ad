package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new entry identifier. Override in tests for determinism.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique entry identifier.
func New() string { return NewFunc() }

// Sequence hands out increasing positive integers, starting at 1.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next value of the sequence.
func (s *Sequence) Next() int {
	return int(s.last.Add(1))
}
