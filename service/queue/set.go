package queue

import (
	"errors"
	"fmt"

	"github.com/viant/hds/model/job"
	"github.com/viant/hds/model/process"
	"go.uber.org/zap"
)

// ErrInvalidPriority is returned for priorities outside the known levels.
var ErrInvalidPriority = errors.New("queue: invalid priority")

// Set groups the realtime queue, the three user queues and the intake queue.
// Code locking more than one queue does so in the order returned by Ordered.
type Set struct {
	Realtime *Queue
	High     *Queue
	Medium   *Queue
	Low      *Queue
	Intake   *Queue
}

// NewSet creates an empty queue set.
func NewSet(logger *zap.Logger) *Set {
	return &Set{
		Realtime: New("rtq", logger),
		High:     New("p1", logger),
		Medium:   New("p2", logger),
		Low:      New("p3", logger),
		Intake:   New("user", logger),
	}
}

// ForPriority returns the queue serving priority.
func (s *Set) ForPriority(priority int) (*Queue, error) {
	switch priority {
	case job.PriorityRealtime:
		return s.Realtime, nil
	case job.PriorityHigh:
		return s.High, nil
	case job.PriorityMedium:
		return s.Medium, nil
	case job.PriorityLow:
		return s.Low, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
}

// Ordered returns the priority queues, most urgent first.
func (s *Set) Ordered() []*Queue {
	return []*Queue{s.Realtime, s.High, s.Medium, s.Low}
}

// Len returns the number of entries across all queues, intake included.
func (s *Set) Len() int {
	ret := s.Intake.Len()
	for _, q := range s.Ordered() {
		ret += q.Len()
	}
	return ret
}

// Enqueue appends entry to the queue serving its priority.
func (s *Set) Enqueue(entry *process.Entry) (*Queue, error) {
	q, err := s.ForPriority(entry.Priority)
	if err != nil {
		return nil, err
	}
	q.Enqueue(entry)
	return q, nil
}
