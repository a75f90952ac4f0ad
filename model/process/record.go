package process

import (
	"time"

	"github.com/viant/hds/internal/clock"
)

// Outcome describes how an entry left the system.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeDiscarded Outcome = "discarded"
)

// Record is the accounting trail of a finished entry.
type Record struct {
	ID         string    `json:"id"`
	Seq        int       `json:"seq"`
	PID        int       `json:"pid"`
	Priority   int       `json:"priority"`
	MemoryReq  int       `json:"memoryReq"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// NewRecord creates a record for entry finished now.
func NewRecord(entry *Entry, outcome Outcome, reason string) *Record {
	return &Record{
		ID:         entry.ID,
		Seq:        entry.Seq,
		PID:        entry.PID,
		Priority:   entry.Priority,
		MemoryReq:  entry.MemoryReq,
		Outcome:    outcome,
		Reason:     reason,
		FinishedAt: clock.Now(),
	}
}
