// Package stats produces human readable status snapshots and handles the
// console commands.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/viant/hds/internal/clock"
	"github.com/viant/hds/model/job"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/memory"
	"github.com/viant/hds/service/messaging"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/service/resource"
	"github.com/viant/hds/service/slot"
	"go.uber.org/zap"
)

// Commands accepted by Execute.
const (
	CommandPrintJobs  = "print_dl"
	CommandPrintStats = "print_stats"
)

// ErrUnrecognizedCommand is returned for unknown commands.
var ErrUnrecognizedCommand = errors.New("unrecognized command")

// Snapshot is one emitted status report.
type Snapshot struct {
	Time  time.Time `json:"time"`
	Lines []string  `json:"lines"`
}

// Config represents reporter configuration
type Config struct {
	// Tick is the delay between two emitted snapshots.
	Tick time.Duration
}

// DefaultConfig returns the default reporter configuration
func DefaultConfig() Config {
	return Config{Tick: time.Second}
}

// Service reports scheduler state
type Service struct {
	config    Config
	logger    *zap.Logger
	pool      *resource.Pool
	next      *slot.Slot
	active    *slot.Slot
	queues    *queue.Set
	allocator *memory.Allocator
	tracker   *progress.Progress
	jobs      []*job.Descriptor
	output    messaging.Queue[Snapshot]

	emitting     atomic.Bool
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates a reporter.
func New(pool *resource.Pool, next, active *slot.Slot, options ...Option) (*Service, error) {
	if pool == nil || next == nil || active == nil {
		return nil, fmt.Errorf("resource pool and slots are required")
	}
	s := &Service{
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
		pool:       pool,
		next:       next,
		active:     active,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Report returns the current snapshot lines.
func (s *Service) Report() []string {
	limits := s.pool.Max()
	available := s.pool.Available()
	lines := []string{
		fmt.Sprintf("memory: max %s, available %s, realtime reserve %s",
			humanize.Comma(int64(limits.Memory)), humanize.Comma(int64(available.Memory)), humanize.Comma(int64(s.pool.Reserve()))),
		fmt.Sprintf("printer: max %s, available %s", humanize.Comma(int64(limits.Printer)), humanize.Comma(int64(available.Printer))),
		fmt.Sprintf("scanner: max %s, available %s", humanize.Comma(int64(limits.Scanner)), humanize.Comma(int64(available.Scanner))),
		"active: " + s.active.Peek().String(),
		"next: " + s.next.Peek().String(),
	}
	if s.queues != nil {
		var counts []string
		for _, q := range append(s.queues.Ordered(), s.queues.Intake) {
			counts = append(counts, fmt.Sprintf("%s=%d", q.Name(), q.Len()))
		}
		lines = append(lines, "queues: "+strings.Join(counts, " "))
	}
	if s.allocator != nil {
		info := s.allocator.Info()
		lines = append(lines, fmt.Sprintf("free pool: %s units [%d-%d], blocks %d, retired %d",
			humanize.Comma(int64(info.PoolSize())), info.PoolStart, info.PoolEnd, len(s.allocator.Blocks()), info.Retired))
	}
	if s.tracker != nil {
		p := s.tracker.Snapshot()
		lines = append(lines, fmt.Sprintf("jobs: dispatched %d, scheduled %d, preempted %d, demoted %d, completed %d, failed %d, dropped %d",
			p.Dispatched, p.Scheduled, p.Preempted, p.Demoted, p.Completed, p.Failed, p.Dropped))
	}
	if s.output != nil {
		lines = append(lines, fmt.Sprintf("snapshots: pending %d, dropped %d", s.output.Size(), s.output.Dropped()))
	}
	return lines
}

// Execute runs a console command and returns its output lines.
func (s *Service) Execute(_ context.Context, command string) ([]string, error) {
	switch strings.TrimSpace(command) {
	case CommandPrintJobs:
		lines := make([]string, 0, len(s.jobs))
		for _, descriptor := range s.jobs {
			lines = append(lines, descriptor.String())
		}
		if len(lines) == 0 {
			lines = append(lines, "job list is empty")
		}
		return lines, nil
	case CommandPrintStats:
		enabled := !s.emitting.Load()
		s.emitting.Store(enabled)
		s.logger.Info("stats emission toggled", zap.Bool("enabled", enabled))
		if enabled {
			return []string{"stats emission enabled"}, nil
		}
		return []string{"stats emission disabled"}, nil
	}
	s.logger.Warn("unrecognized command", zap.String("command", command))
	return nil, fmt.Errorf("%w: %q", ErrUnrecognizedCommand, command)
}

// Emitting reports whether periodic snapshots are published.
func (s *Service) Emitting() bool {
	return s.emitting.Load()
}

// Start publishes a snapshot every tick while emission is enabled.
func (s *Service) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		default:
		}
		s.Emit(ctx)
		clock.Sleep(ctx, s.shutdownCh, s.config.Tick)
	}
}

// Emit publishes one snapshot if emission is enabled. It reports whether a
// snapshot was published.
func (s *Service) Emit(ctx context.Context) bool {
	if !s.emitting.Load() || s.output == nil {
		return false
	}
	snapshot := &Snapshot{Time: clock.Now(), Lines: s.Report()}
	if err := s.output.Publish(ctx, snapshot); err != nil {
		s.logger.Warn("failed to publish snapshot", zap.Error(err))
		return false
	}
	return true
}

// Shutdown stops the reporting loop.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}
