// Package resource tracks the resource units available to user jobs and
// implements admission control.
package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/hds/model/job"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/policy"
)

// ErrExhausted is returned when a reservation exceeds the available units.
var ErrExhausted = errors.New("resource: exhausted")

// Pool keeps the process-wide maximum and currently available resource
// counters. All counters share one lock.
type Pool struct {
	max       job.Limits
	reserve   int
	policy    *policy.Policy
	mu        sync.Mutex
	available policy.Demand
}

// New creates a pool. The realtime reserve is carved out of the memory that
// user jobs may claim.
func New(limits job.Limits, reserve int, admission *policy.Policy) (*Pool, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if reserve < 0 || reserve >= limits.Memory {
		return nil, fmt.Errorf("realtime reserve %d must be in [0, %d)", reserve, limits.Memory)
	}
	return &Pool{
		max:     limits,
		reserve: reserve,
		policy:  admission,
		available: policy.Demand{
			Memory:  limits.Memory - reserve,
			Printer: limits.Printer,
			Scanner: limits.Scanner,
		},
	}, nil
}

// Max returns the configured limits.
func (p *Pool) Max() job.Limits {
	return p.max
}

// Reserve returns the memory units reserved for realtime work.
func (p *Pool) Reserve() int {
	return p.reserve
}

// Available returns a copy of the available counters.
func (p *Pool) Available() policy.Demand {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// CanAdmit reports whether entry passes admission against the current counters.
func (p *Pool) CanAdmit(entry *process.Entry) bool {
	requested := policy.Demand{Memory: entry.MemoryReq, Printer: entry.PrinterReq, Scanner: entry.ScannerReq}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.policy.Admit(requested, p.available)
}

// ReservesDevices reports whether running jobs hold printers and scanners.
func (p *Pool) ReservesDevices() bool {
	return p.policy.ChecksDevices()
}

// AcquireMemory subtracts units from the available memory.
func (p *Pool) AcquireMemory(units int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if units > p.available.Memory {
		return fmt.Errorf("%w: memory requested %d, available %d", ErrExhausted, units, p.available.Memory)
	}
	p.available.Memory -= units
	return nil
}

// ReleaseMemory returns units to the available memory.
func (p *Pool) ReleaseMemory(units int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available.Memory += units
	if limit := p.max.Memory - p.reserve; p.available.Memory > limit {
		p.available.Memory = limit
	}
}

// AcquireDevices reserves printers and scanners, all or nothing.
func (p *Pool) AcquireDevices(printer, scanner int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if printer > p.available.Printer || scanner > p.available.Scanner {
		return fmt.Errorf("%w: printer %d/%d, scanner %d/%d", ErrExhausted,
			printer, p.available.Printer, scanner, p.available.Scanner)
	}
	p.available.Printer -= printer
	p.available.Scanner -= scanner
	return nil
}

// ReleaseDevices returns printers and scanners.
func (p *Pool) ReleaseDevices(printer, scanner int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available.Printer = min(p.available.Printer+printer, p.max.Printer)
	p.available.Scanner = min(p.available.Scanner+scanner, p.max.Scanner)
}
