// Package scheduler promotes the most urgent admissible entry from the queue
// set into the next-to-run slot.
//
// Entries are searched in priority order (realtime, p1, p2, p3) and FCFS
// within a queue. Realtime entries and entries that already hold memory skip
// admission control. A candidate that is not more urgent than the active entry
// waits. A parked next-to-run entry is displaced only by a strictly more
// urgent candidate; the displaced entry is demoted one level and re-queued.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/hds/internal/clock"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/service/resource"
	"github.com/viant/hds/service/slot"
	"github.com/viant/hds/tracing"
	"go.uber.org/zap"
)

// Config represents scheduler configuration
type Config struct {
	// Tick is the delay between two scheduling steps.
	Tick time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{Tick: time.Second}
}

// Decision describes what a scheduling step did.
type Decision int

const (
	// DecisionIdle means no admissible candidate was found.
	DecisionIdle Decision = iota
	// DecisionWait means the candidate must not preempt the active or parked entry.
	DecisionWait
	// DecisionInstalled means the candidate was moved into next-to-run.
	DecisionInstalled
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionInstalled:
		return "installed"
	}
	return "idle"
}

// Service schedules queued entries
type Service struct {
	config  Config
	logger  *zap.Logger
	queues  *queue.Set
	next    *slot.Slot
	active  *slot.Slot
	pool    *resource.Pool
	tracker *progress.Progress

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates a scheduler.
func New(queues *queue.Set, next, active *slot.Slot, pool *resource.Pool, options ...Option) (*Service, error) {
	if queues == nil || next == nil || active == nil {
		return nil, fmt.Errorf("queue set and slots are required")
	}
	if pool == nil {
		return nil, fmt.Errorf("resource pool is required")
	}
	s := &Service{
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
		queues:     queues,
		next:       next,
		active:     active,
		pool:       pool,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Start runs the scheduling loop until ctx is done or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		default:
		}
		s.Step(ctx)
		clock.Sleep(ctx, s.shutdownCh, s.config.Tick)
	}
}

// FindNext returns a copy of the first admissible entry and the queue holding it.
func (s *Service) FindNext() (*process.Entry, *queue.Queue) {
	for _, q := range s.queues.Ordered() {
		if candidate := q.FindFirst(s.admissible); candidate != nil {
			return candidate, q
		}
	}
	return nil, nil
}

func (s *Service) admissible(entry *process.Entry) bool {
	if entry.IsRealtime() || entry.HoldsMemory() {
		return true
	}
	return s.pool.CanAdmit(entry)
}

// Step performs one scheduling decision.
func (s *Service) Step(ctx context.Context) (decision Decision) {
	_, span := tracing.StartSpan(ctx, "scheduler.Step")
	defer func() {
		tracing.EndSpan(span.WithAttributes(map[string]string{"decision": decision.String()}), nil)
	}()

	candidate, source := s.FindNext()
	if candidate == nil {
		s.logger.Debug("no admissible candidate")
		return DecisionIdle
	}
	span.WithInt("job", candidate.Seq)
	if priority, ok := s.active.Priority(); ok && candidate.Priority >= priority {
		return DecisionWait
	}

	var displaced *process.Entry
	moved := source.Transfer(candidate.ID, func(entry *process.Entry) bool {
		var accepted bool
		displaced, accepted = s.next.Offer(entry)
		return accepted
	})
	if !moved {
		return DecisionWait
	}
	s.tracker.Update(progress.Delta{Scheduled: 1})
	s.logger.Info("job scheduled", zap.Int("job", candidate.Seq), zap.Int("priority", candidate.Priority), zap.String("queue", source.Name()))
	if displaced != nil {
		s.demote(displaced)
	}
	return DecisionInstalled
}

func (s *Service) demote(entry *process.Entry) {
	from := entry.Priority
	entry.Demote()
	q, err := s.queues.Enqueue(entry)
	if err != nil {
		s.logger.Error("failed to re-queue displaced job", zap.Int("job", entry.Seq), zap.Int("priority", entry.Priority), zap.Error(err))
		return
	}
	s.tracker.Update(progress.Delta{Demoted: 1})
	s.logger.Info("job displaced", zap.Int("job", entry.Seq), zap.Int("from", from), zap.Int("to", entry.Priority), zap.String("queue", q.Name()))
}

// Shutdown stops the scheduling loop.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}
