// Package dispatcher moves job descriptors from the loaded job list into the
// queue set, one descriptor per tick.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/hds/internal/clock"
	"github.com/viant/hds/model/job"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/tracing"
	"go.uber.org/zap"
)

// Config represents dispatcher configuration
type Config struct {
	// Tick is the delay between two dispatch steps.
	Tick time.Duration
}

// DefaultConfig returns the default dispatcher configuration
func DefaultConfig() Config {
	return Config{Tick: time.Second}
}

// Service dispatches job descriptors
type Service struct {
	config  Config
	logger  *zap.Logger
	queues  *queue.Set
	tracker *progress.Progress
	history dao.Service[string, process.Record]

	mu     sync.Mutex
	source []*job.Descriptor

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates a dispatcher draining source into queues.
func New(source []*job.Descriptor, queues *queue.Set, options ...Option) (*Service, error) {
	if queues == nil {
		return nil, fmt.Errorf("queue set is required")
	}
	s := &Service{
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
		queues:     queues,
		source:     append([]*job.Descriptor(nil), source...),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Start runs the dispatch loop until ctx is done or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	defer s.release()
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

// Step classifies the head descriptor, if any, then routes the intake queue
// into the user queues. It reports whether a descriptor was consumed.
func (s *Service) Step(ctx context.Context) bool {
	_, span := tracing.StartSpan(ctx, "dispatcher.Step")
	defer tracing.EndSpan(span, nil)

	descriptor := s.next()
	if descriptor != nil {
		entry := process.NewEntry(descriptor)
		target := s.queues.Intake
		if descriptor.IsRealtime() {
			target = s.queues.Realtime
		}
		target.Enqueue(entry)
		s.tracker.Update(progress.Delta{Dispatched: 1})
		span.WithInt("job", descriptor.Seq)
		s.logger.Info("job dispatched", zap.Int("job", descriptor.Seq), zap.Int("priority", descriptor.Priority), zap.String("queue", target.Name()))
	}
	s.route(ctx)
	return descriptor != nil
}

func (s *Service) next() *job.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.source) == 0 {
		return nil
	}
	ret := s.source[0]
	s.source[0] = nil
	s.source = s.source[1:]
	return ret
}

// route drains the intake queue into p1, p2 and p3.
func (s *Service) route(ctx context.Context) {
	for {
		entry := s.queues.Intake.DequeueFirst()
		if entry == nil {
			return
		}
		if !job.IsUserPriority(entry.Priority) {
			s.drop(ctx, entry)
			continue
		}
		if _, err := s.queues.Enqueue(entry); err != nil {
			s.drop(ctx, entry)
		}
	}
}

func (s *Service) drop(ctx context.Context, entry *process.Entry) {
	s.logger.Warn("job dropped: priority out of range", zap.Int("job", entry.Seq), zap.Int("priority", entry.Priority))
	s.tracker.Update(progress.Delta{Dropped: 1})
	if s.history == nil {
		return
	}
	if err := s.history.Save(ctx, process.NewRecord(entry, process.OutcomeDiscarded, "priority out of range")); err != nil {
		s.logger.Warn("failed to record dropped job", zap.Int("job", entry.Seq), zap.Error(err))
	}
}

// Remaining returns the number of descriptors not yet dispatched.
func (s *Service) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.source)
}

func (s *Service) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.source) > 0 {
		s.logger.Info("releasing undispatched jobs", zap.Int("count", len(s.source)))
	}
	s.source = nil
}

// Shutdown stops the dispatch loop.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}
