// Package cpu implements the executor owning the active slot. Each cycle it
// promotes the next-to-run entry, then runs the active entry's execution unit
// for one tick.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/hds/internal/clock"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/memory"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/service/resource"
	"github.com/viant/hds/service/slot"
	"github.com/viant/hds/service/unit"
	"github.com/viant/hds/tracing"
	"go.uber.org/zap"
)

// Config represents executor configuration
type Config struct {
	// Tick is the quantum an execution unit runs per cycle.
	Tick time.Duration
}

// DefaultConfig returns the default executor configuration
func DefaultConfig() Config {
	return Config{Tick: time.Second}
}

// Result describes what a cycle did.
type Result int

const (
	// Idle means there was nothing to run.
	Idle Result = iota
	// Ran means the active entry ran for one tick.
	Ran
	// Reaped means the active entry left the slot; the next cycle may start immediately.
	Reaped
)

// Service executes the active entry
type Service struct {
	config    Config
	logger    *zap.Logger
	queues    *queue.Set
	next      *slot.Slot
	active    *slot.Slot
	units     unit.Service
	allocator *memory.Allocator
	pool      *resource.Pool
	history   dao.Service[string, process.Record]
	tracker   *progress.Progress

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates an executor.
func New(queues *queue.Set, next, active *slot.Slot, units unit.Service, allocator *memory.Allocator, pool *resource.Pool, options ...Option) (*Service, error) {
	if queues == nil || next == nil || active == nil {
		return nil, fmt.Errorf("queue set and slots are required")
	}
	if units == nil {
		return nil, fmt.Errorf("execution unit service is required")
	}
	if allocator == nil || pool == nil {
		return nil, fmt.Errorf("allocator and resource pool are required")
	}
	s := &Service{
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
		queues:     queues,
		next:       next,
		active:     active,
		units:      units,
		allocator:  allocator,
		pool:       pool,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Start runs cycles until ctx is done or Shutdown is called. Only an idle
// cycle waits a tick; a reaped entry lets the next cycle start at once.
func (s *Service) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		default:
		}
		if s.Cycle(ctx) == Idle {
			clock.Sleep(ctx, s.shutdownCh, s.config.Tick)
		}
	}
}

// Cycle performs one executor step.
func (s *Service) Cycle(ctx context.Context) Result {
	ctx, span := tracing.StartSpan(ctx, "cpu.Cycle")
	defer tracing.EndSpan(span, nil)

	preempted, promoted := slot.Promote(s.next, s.active)
	if preempted != nil {
		s.preempt(preempted)
	}
	entry := s.active.Peek()
	if entry == nil {
		s.logger.Debug("no runnable job")
		return Idle
	}
	span.WithInt("job", entry.Seq).WithInt("pid", entry.PID)
	if promoted {
		s.logger.Info("job activated", zap.Int("job", entry.Seq), zap.Int("priority", entry.Priority), zap.Int("cpu", entry.CPUTime))
	}

	if entry.CPUTime <= 0 {
		if !entry.Started() {
			s.logger.Error("invalid job state: no cpu time left and never started, check the job list",
				zap.Int("job", entry.Seq), zap.Int("cpu", entry.CPUTime), zap.Int("pid", entry.PID))
			s.active.Invalidate()
			s.record(ctx, entry, process.OutcomeDiscarded, "invalid state")
			s.tracker.Update(progress.Delta{Dropped: 1})
			return Reaped
		}
		s.complete(ctx, entry)
		return Reaped
	}

	if !entry.Started() {
		if err := s.launch(ctx, entry); err != nil {
			span.SetStatus(err)
			return Reaped
		}
	}
	if err := s.run(ctx, entry); err != nil {
		span.SetStatus(err)
		return Reaped
	}
	return Ran
}

// launch spawns a suspended unit and acquires the entry resources. Any failure
// tears the unit down and vacates the active slot.
func (s *Service) launch(ctx context.Context, entry *process.Entry) error {
	pid, err := s.units.Spawn(ctx, entry.Seq)
	if err != nil {
		s.logger.Error("failed to spawn unit", zap.Int("job", entry.Seq), zap.Error(err))
		s.fail(ctx, entry, err)
		return err
	}
	entry.PID = pid
	if !entry.IsRealtime() {
		if err = s.acquire(ctx, entry); err != nil {
			s.logger.Error("resource allocation failed", zap.Int("job", entry.Seq), zap.Int("pid", pid),
				zap.Int("memory", entry.MemoryReq), zap.Int("printer", entry.PrinterReq), zap.Int("scanner", entry.ScannerReq),
				zap.Int("availableMemory", s.pool.Available().Memory), zap.Error(err))
			s.terminate(ctx, pid)
			s.fail(ctx, entry, err)
			return err
		}
	}
	s.active.Update(func(active *process.Entry) {
		active.PID = entry.PID
		active.Block = entry.Block
	})
	s.logger.Info("unit spawned", zap.Int("job", entry.Seq), zap.Int("pid", pid), zap.Int("block", entry.Block))
	return nil
}

// acquire allocates the entry memory block. Printers and scanners are
// reserved only when admission checks them, otherwise a job admitted on
// memory alone could fail on a device held by a preempted job.
func (s *Service) acquire(ctx context.Context, entry *process.Entry) error {
	devices := s.pool.ReservesDevices()
	if devices {
		if err := s.pool.AcquireDevices(entry.PrinterReq, entry.ScannerReq); err != nil {
			return err
		}
	}
	if entry.MemoryReq <= 0 {
		return nil
	}
	handle, err := s.allocator.Allocate(ctx, entry.PID, entry.MemoryReq)
	if err != nil {
		if devices {
			s.pool.ReleaseDevices(entry.PrinterReq, entry.ScannerReq)
		}
		return err
	}
	entry.Block = handle
	return nil
}

// run resumes the unit for one tick, suspends it and charges the tick.
func (s *Service) run(ctx context.Context, entry *process.Entry) error {
	if err := s.units.Resume(ctx, entry.PID); err != nil {
		s.logger.Error("failed to resume unit", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID), zap.Error(err))
		s.release(ctx, entry)
		s.fail(ctx, entry, err)
		return err
	}
	elapsed := clock.Sleep(ctx, s.shutdownCh, s.config.Tick)
	if err := s.units.Suspend(ctx, entry.PID); err != nil {
		s.logger.Warn("failed to suspend unit", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID), zap.Error(err))
	}
	if !elapsed {
		return nil
	}
	s.active.Update(func(active *process.Entry) {
		if active.PID == entry.PID {
			active.CPUTime--
		}
	})
	s.logger.Debug("job ran", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID), zap.Int("cpu", entry.CPUTime-1))
	return nil
}

// complete terminates a finished entry and returns its resources.
func (s *Service) complete(ctx context.Context, entry *process.Entry) {
	s.release(ctx, entry)
	s.active.Invalidate()
	s.record(ctx, entry, process.OutcomeCompleted, "")
	s.tracker.Update(progress.Delta{Completed: 1})
	s.logger.Info("job completed", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID))
}

// release terminates the unit and frees memory and devices.
func (s *Service) release(ctx context.Context, entry *process.Entry) {
	s.terminate(ctx, entry.PID)
	if entry.IsRealtime() {
		return
	}
	if entry.HoldsMemory() {
		if err := s.allocator.Free(ctx, entry.PID, entry.Block); err != nil {
			if errors.Is(err, memory.ErrAccessViolation) {
				s.tracker.Update(progress.Delta{Violations: 1})
			}
			s.logger.Error("failed to free memory", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID), zap.Int("block", entry.Block), zap.Error(err))
		}
	}
	if s.pool.ReservesDevices() {
		s.pool.ReleaseDevices(entry.PrinterReq, entry.ScannerReq)
	}
}

func (s *Service) terminate(ctx context.Context, pid int) {
	if err := s.units.Terminate(ctx, pid); err != nil {
		s.logger.Warn("failed to terminate unit", zap.Int("pid", pid), zap.Error(err))
	}
}

func (s *Service) fail(ctx context.Context, entry *process.Entry, err error) {
	s.active.Invalidate()
	s.record(ctx, entry, process.OutcomeFailed, err.Error())
	s.tracker.Update(progress.Delta{Failed: 1})
}

// preempt demotes the displaced active entry back into the queues. It keeps
// its unit and memory.
func (s *Service) preempt(entry *process.Entry) {
	from := entry.Priority
	entry.Demote()
	q, err := s.queues.Enqueue(entry)
	if err != nil {
		s.logger.Error("failed to re-queue preempted job", zap.Int("job", entry.Seq), zap.Error(err))
		return
	}
	s.tracker.Update(progress.Delta{Preempted: 1, Demoted: 1})
	s.logger.Info("job preempted", zap.Int("job", entry.Seq), zap.Int("pid", entry.PID), zap.Int("from", from), zap.Int("to", entry.Priority), zap.String("queue", q.Name()))
}

func (s *Service) record(ctx context.Context, entry *process.Entry, outcome process.Outcome, reason string) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(ctx, process.NewRecord(entry, outcome, reason)); err != nil {
		s.logger.Warn("failed to record job", zap.Int("job", entry.Seq), zap.Error(err))
	}
}

// Shutdown stops the cycle loop.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}
