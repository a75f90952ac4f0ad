// Package process defines the queue entry that moves between the priority
// queues, the next-to-run slot and the active slot.
package process

import (
	"fmt"
	"time"

	"github.com/viant/hds/internal/idgen"
	"github.com/viant/hds/model/job"
)

// Entry represents a schedulable job instance.
//
// PID is the execution unit identifier; 0 means the entry never ran.
// Block is the allocated memory block handle; 0 means nothing is allocated.
type Entry struct {
	ID          string    `json:"id"`
	Seq         int       `json:"seq"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Priority    int       `json:"priority"`
	CPUTime     int       `json:"cpuTime"`
	MemoryReq   int       `json:"memoryReq"`
	PrinterReq  int       `json:"printerReq"`
	ScannerReq  int       `json:"scannerReq"`
	PID         int       `json:"pid"`
	Block       int       `json:"block"`
}

// NewEntry creates an entry from a job descriptor.
func NewEntry(d *job.Descriptor) *Entry {
	return &Entry{
		ID:         idgen.New(),
		Seq:        d.Seq,
		Priority:   d.Priority,
		CPUTime:    d.CPUReq,
		MemoryReq:  d.MemoryReq,
		PrinterReq: d.PrinterReq,
		ScannerReq: d.ScannerReq,
	}
}

// IsRealtime returns true for realtime entries.
func (e *Entry) IsRealtime() bool {
	return e.Priority == job.PriorityRealtime
}

// Started returns true once an execution unit was spawned for the entry.
func (e *Entry) Started() bool {
	return e.PID != 0
}

// HoldsMemory returns true when the entry owns an allocated block.
func (e *Entry) HoldsMemory() bool {
	return e.Block != 0
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	ret := *e
	return &ret
}

// Demote lowers the entry priority by one level. Realtime entries keep their
// priority and user entries never drop below the lowest user level.
func (e *Entry) Demote() {
	e.Priority = DemotedPriority(e.Priority)
}

// DemotedPriority returns the priority an entry gets after being displaced.
func DemotedPriority(priority int) int {
	if priority <= job.PriorityRealtime {
		return priority
	}
	if priority >= job.PriorityLow {
		return job.PriorityLow
	}
	return priority + 1
}

// String returns the full human readable descriptor.
func (e *Entry) String() string {
	if e == nil {
		return "none"
	}
	arrival := "-"
	if !e.ArrivalTime.IsZero() {
		arrival = e.ArrivalTime.Format("15:04:05.000")
	}
	return fmt.Sprintf("job #%d pid=%d priority=%d cpu=%d memory=%d printer=%d scanner=%d block=%d arrival=%s",
		e.Seq, e.PID, e.Priority, e.CPUTime, e.MemoryReq, e.PrinterReq, e.ScannerReq, e.Block, arrival)
}
