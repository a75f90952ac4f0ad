package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the dispatcher,
// scheduler or executor.
type Delta struct {
	Dispatched int
	Dropped    int
	Scheduled  int
	Demoted    int
	Preempted  int
	Completed  int
	Failed     int
	Violations int
}

// Progress keeps aggregated counters for one scheduler run. It is safe for
// concurrent use.
type Progress struct {
	StartedAt time.Time

	Dispatched int
	Dropped    int
	Scheduled  int
	Demoted    int
	Preempted  int
	Completed  int
	Failed     int
	Violations int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker started now.
func New(onChange func(Progress)) *Progress {
	return &Progress{StartedAt: time.Now(), onChange: onChange}
}

// Update applies the supplied delta. The onChange callback, if any, receives a
// copy of the counters outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()
	p.Dispatched += d.Dispatched
	p.Dropped += d.Dropped
	p.Scheduled += d.Scheduled
	p.Demoted += d.Demoted
	p.Preempted += d.Preempted
	p.Completed += d.Completed
	p.Failed += d.Failed
	p.Violations += d.Violations

	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Finished returns the number of jobs that left the system.
func (p *Progress) Finished() int {
	return p.Completed + p.Failed + p.Dropped
}

func (p *Progress) copy() Progress {
	return Progress{
		StartedAt:  p.StartedAt,
		Dispatched: p.Dispatched,
		Dropped:    p.Dropped,
		Scheduled:  p.Scheduled,
		Demoted:    p.Demoted,
		Preempted:  p.Preempted,
		Completed:  p.Completed,
		Failed:     p.Failed,
		Violations: p.Violations,
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}
