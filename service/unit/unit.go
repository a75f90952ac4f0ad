// Package unit abstracts the execution unit backing a running entry. A unit is
// spawned suspended, then alternates between resumed and suspended until it is
// terminated. Progress made while resumed survives a suspension.
package unit

import (
	"context"
	"errors"
)

// ErrNotFound is returned for a pid that does not name a live unit.
var ErrNotFound = errors.New("unit: not found")

// Kind names an execution unit backend.
type Kind string

const (
	KindThread  Kind = "thread"
	KindProcess Kind = "process"
)

// Service manages execution units.
type Service interface {
	// Spawn creates a suspended unit for the entry and returns its pid.
	Spawn(ctx context.Context, seq int) (int, error)

	// Resume lets the unit run.
	Resume(ctx context.Context, pid int) error

	// Suspend pauses the unit, preserving its state.
	Suspend(ctx context.Context, pid int) error

	// Terminate destroys the unit and reclaims it.
	Terminate(ctx context.Context, pid int) error

	// Live returns the pids of units not yet terminated.
	Live(ctx context.Context) []int
}

// TerminateAll terminates every live unit and returns the first error.
func TerminateAll(ctx context.Context, srv Service) error {
	var ret error
	for _, pid := range srv.Live(ctx) {
		if err := srv.Terminate(ctx, pid); err != nil && !errors.Is(err, ErrNotFound) && ret == nil {
			ret = err
		}
	}
	return ret
}
