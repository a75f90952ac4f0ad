package hds

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/hds/model/process"
	"github.com/viant/hds/policy"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/cpu"
	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/dao/history"
	"github.com/viant/hds/service/dispatcher"
	"github.com/viant/hds/service/memory"
	"github.com/viant/hds/service/messaging"
	mmemory "github.com/viant/hds/service/messaging/memory"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/service/resource"
	"github.com/viant/hds/service/scheduler"
	"github.com/viant/hds/service/slot"
	"github.com/viant/hds/service/stats"
	"github.com/viant/hds/service/unit"
	"github.com/viant/hds/service/unit/thread"
	"go.uber.org/zap"
)

// Service wires the scheduler state and its four workers.
type Service struct {
	config  *Config
	logger  *zap.Logger
	tracker *progress.Progress

	queues    *queue.Set
	next      *slot.Slot
	active    *slot.Slot
	pool      *resource.Pool
	allocator *memory.Allocator
	units     unit.Service
	history   *history.Service
	snapshots messaging.Queue[stats.Snapshot]

	dispatcher *dispatcher.Service
	scheduler  *scheduler.Service
	cpu        *cpu.Service
	stats      *stats.Service

	done     chan struct{}
	doneOnce sync.Once

	mu           sync.Mutex
	started      bool
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
}

// New validates config and builds the scheduler.
func New(config *Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		config:  config,
		logger:  zap.NewNop(),
		next:    slot.New("next"),
		active:  slot.New("active"),
		history: history.New(),
		done:    make(chan struct{}),
	}
	s.tracker = progress.New(s.onProgress)
	if len(config.Jobs) == 0 {
		s.doneOnce.Do(func() { close(s.done) })
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	admission, err := policy.New(s.config.Admission)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.pool, err = resource.New(s.config.MaxResources, s.config.RealtimeReserve, admission); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.allocator, err = memory.New(s.config.MaxResources.Memory, s.config.RealtimeReserve,
		memory.WithLogger(s.logger.Named("memory")), memory.WithAccounter(s.pool))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.units == nil {
		if s.units, err = newUnits(s.config.Executor, s.logger.Named("unit")); err != nil {
			return err
		}
	}
	if s.snapshots == nil {
		cfg := mmemory.DefaultConfig()
		if s.config.SnapshotBuffer > 0 {
			cfg.QueueBuffer = s.config.SnapshotBuffer
		}
		s.snapshots = mmemory.NewQueue[stats.Snapshot](cfg)
	}
	s.queues = queue.NewSet(s.logger.Named("queue"))

	tick := s.config.Tick
	if s.dispatcher, err = dispatcher.New(s.config.Jobs, s.queues,
		dispatcher.WithConfig(dispatcher.Config{Tick: tick}),
		dispatcher.WithLogger(s.logger),
		dispatcher.WithProgress(s.tracker),
		dispatcher.WithHistory(s.history)); err != nil {
		return err
	}
	if s.scheduler, err = scheduler.New(s.queues, s.next, s.active, s.pool,
		scheduler.WithConfig(scheduler.Config{Tick: tick}),
		scheduler.WithLogger(s.logger),
		scheduler.WithProgress(s.tracker)); err != nil {
		return err
	}
	if s.cpu, err = cpu.New(s.queues, s.next, s.active, s.units, s.allocator, s.pool,
		cpu.WithConfig(cpu.Config{Tick: tick}),
		cpu.WithLogger(s.logger),
		cpu.WithProgress(s.tracker),
		cpu.WithHistory(s.history)); err != nil {
		return err
	}
	s.stats, err = stats.New(s.pool, s.next, s.active,
		stats.WithConfig(stats.Config{Tick: tick}),
		stats.WithLogger(s.logger),
		stats.WithJobs(s.config.Jobs),
		stats.WithOutput(s.snapshots),
		stats.WithQueues(s.queues),
		stats.WithAllocator(s.allocator),
		stats.WithProgress(s.tracker))
	return err
}

func newUnits(kind unit.Kind, logger *zap.Logger) (unit.Service, error) {
	switch kind {
	case "", unit.KindThread:
		return thread.New(thread.WithLogger(logger)), nil
	case unit.KindProcess:
		return newProcessUnits(logger)
	}
	return nil, fmt.Errorf("%w: unsupported executor: %q", ErrInvalidConfig, kind)
}

type worker interface {
	Start(ctx context.Context) error
}

// Start launches the dispatcher, scheduler, cpu and stats workers. It returns
// immediately; use Shutdown to stop them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.config.Jobs)),
		zap.Int("memory", s.config.MaxResources.Memory), zap.Int("reserve", s.config.RealtimeReserve),
		zap.Duration("tick", s.config.Tick), zap.String("executor", string(s.config.Executor)))
	workers := map[string]worker{
		"dispatcher": s.dispatcher,
		"scheduler":  s.scheduler,
		"cpu":        s.cpu,
		"stats":      s.stats,
	}
	for name, w := range workers {
		s.wg.Add(1)
		go func(name string, w worker) {
			defer s.wg.Done()
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("worker stopped", zap.String("worker", name), zap.Error(err))
			}
		}(name, w)
	}
	return nil
}

// Shutdown stops the workers, waits for their in-flight tick, terminates the
// remaining execution units and releases the block list.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.dispatcher.Shutdown()
		s.scheduler.Shutdown()
		s.cpu.Shutdown()
		s.stats.Shutdown()
		s.wg.Wait()
		s.shutdownErr = unit.TerminateAll(ctx, s.units)
		s.allocator.Teardown()
		p := s.tracker.Snapshot()
		s.logger.Info("scheduler stopped", zap.Int("completed", p.Completed), zap.Int("failed", p.Failed), zap.Int("dropped", p.Dropped))
	})
	return s.shutdownErr
}

// Snapshot returns the human readable status lines.
func (s *Service) Snapshot() []string {
	return s.stats.Report()
}

// Execute runs a console command.
func (s *Service) Execute(ctx context.Context, command string) ([]string, error) {
	return s.stats.Execute(ctx, command)
}

// Snapshots returns the queue receiving periodic snapshots.
func (s *Service) Snapshots() messaging.Queue[stats.Snapshot] {
	return s.snapshots
}

// Progress returns the scheduling counters.
func (s *Service) Progress() progress.Progress {
	return s.tracker.Snapshot()
}

// onProgress closes done once every loaded job left the system.
func (s *Service) onProgress(p progress.Progress) {
	if p.Finished() < len(s.config.Jobs) {
		return
	}
	s.doneOnce.Do(func() {
		s.logger.Info("all jobs finished", zap.Int("completed", p.Completed), zap.Int("failed", p.Failed), zap.Int("dropped", p.Dropped))
		close(s.done)
	})
}

// Done returns a channel closed once every loaded job completed, failed or
// was dropped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Finished reports whether every loaded job left the system.
func (s *Service) Finished() bool {
	p := s.tracker.Snapshot()
	return s.dispatcher.Remaining() == 0 && p.Finished() >= len(s.config.Jobs)
}

// History returns the records of finished jobs, optionally narrowed by outcome.
func (s *Service) History(ctx context.Context, outcomes ...process.Outcome) ([]*process.Record, error) {
	var parameters []*dao.Parameter
	if len(outcomes) > 0 {
		values := make([]string, len(outcomes))
		for i, outcome := range outcomes {
			values[i] = string(outcome)
		}
		parameters = append(parameters, dao.NewParameter("Outcome", values...))
	}
	return s.history.List(ctx, parameters...)
}
