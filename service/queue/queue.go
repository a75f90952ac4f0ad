// Package queue implements the FIFO process queues. Each queue guards its
// entries with its own lock; ordering within a queue is insertion order.
package queue

import (
	"sync"

	"github.com/viant/hds/internal/clock"
	"github.com/viant/hds/model/process"
	"go.uber.org/zap"
)

// Queue represents a FIFO sequence of entries.
type Queue struct {
	name    string
	logger  *zap.Logger
	mu      sync.Mutex
	entries []*process.Entry
}

// New creates an empty queue.
func New(name string, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{name: name, logger: logger.With(zap.String("queue", name))}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends entry to the tail and stamps its arrival time.
func (q *Queue) Enqueue(entry *process.Entry) {
	if entry == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	entry.ArrivalTime = clock.Now()
	q.entries = append(q.entries, entry)
}

// DequeueFirst detaches the head entry. An empty queue yields nil.
func (q *Queue) DequeueFirst() *process.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		q.logger.Debug("dequeue from empty queue")
		return nil
	}
	ret := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return ret
}

// Remove detaches the entry with the supplied id. A missing entry yields nil.
func (q *Queue) Remove(id string) *process.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	index := q.indexOf(id)
	if index == -1 {
		q.logger.Debug("entry not in queue", zap.String("id", id))
		return nil
	}
	return q.detach(index)
}

func (q *Queue) indexOf(id string) int {
	for i, entry := range q.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) detach(index int) *process.Entry {
	ret := q.entries[index]
	copy(q.entries[index:], q.entries[index+1:])
	q.entries[len(q.entries)-1] = nil
	q.entries = q.entries[:len(q.entries)-1]
	return ret
}

// FindFirst returns a copy of the first entry matching predicate, or nil.
func (q *Queue) FindFirst(predicate func(entry *process.Entry) bool) *process.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, entry := range q.entries {
		if predicate(entry) {
			return entry.Clone()
		}
	}
	return nil
}

// Transfer hands the entry with the supplied id to accept while the queue lock
// is held; the entry leaves the queue only when accept returns true. It
// reports whether the entry was handed over.
func (q *Queue) Transfer(id string, accept func(entry *process.Entry) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	index := q.indexOf(id)
	if index == -1 {
		return false
	}
	if !accept(q.entries[index].Clone()) {
		return false
	}
	q.detach(index)
	return true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns copies of the queued entries in order.
func (q *Queue) Entries() []*process.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := make([]*process.Entry, len(q.entries))
	for i, entry := range q.entries {
		ret[i] = entry.Clone()
	}
	return ret
}

// Drain detaches every entry.
func (q *Queue) Drain() []*process.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := q.entries
	q.entries = nil
	return ret
}
