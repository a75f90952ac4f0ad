// Package thread implements execution units as goroutines. A resumed unit
// counts ticks of work until it is suspended again.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/viant/hds/internal/idgen"
	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/dao/store"
	"github.com/viant/hds/service/unit"
	"go.uber.org/zap"
)

// Config holds the worker settings.
type Config struct {
	// Interval between two units of work while resumed.
	Interval time.Duration
}

// DefaultConfig returns the default worker settings.
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Millisecond}
}

type command int

const (
	commandResume command = iota
	commandSuspend
	commandTerminate
)

type request struct {
	command command
	ack     chan struct{}
}

type worker struct {
	pid      int
	seq      int
	requests chan request
	done     chan struct{}
	work     atomic.Int64
}

func (w *worker) run(interval time.Duration, logger *zap.Logger) {
	var tick <-chan time.Time
	var ticker *time.Ticker
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stop()
	defer close(w.done)
	for {
		select {
		case req := <-w.requests:
			switch req.command {
			case commandResume:
				if ticker == nil {
					ticker = time.NewTicker(interval)
					tick = ticker.C
				}
			case commandSuspend:
				stop()
			case commandTerminate:
				logger.Debug("unit exited", zap.Int("pid", w.pid), zap.Int("job", w.seq), zap.Int64("work", w.work.Load()))
				close(req.ack)
				return
			}
			close(req.ack)
		case <-tick:
			w.work.Add(1)
		}
	}
}

// Service runs units as goroutines.
type Service struct {
	config   Config
	logger   *zap.Logger
	pids     idgen.Sequence
	registry *store.MemoryStore[int, worker]
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig sets the worker settings.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// New creates a goroutine backed unit service.
func New(options ...Option) *Service {
	ret := &Service{
		config:   DefaultConfig(),
		logger:   zap.NewNop(),
		registry: store.NewMemoryStore[int, worker](func(w *worker) int { return w.pid }),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.config.Interval <= 0 {
		ret.config.Interval = DefaultConfig().Interval
	}
	return ret
}

// Spawn starts a suspended worker.
func (s *Service) Spawn(ctx context.Context, seq int) (int, error) {
	w := &worker{pid: s.pids.Next(), seq: seq, requests: make(chan request), done: make(chan struct{})}
	if err := s.registry.Save(ctx, w); err != nil {
		return 0, err
	}
	go w.run(s.config.Interval, s.logger)
	s.logger.Debug("unit spawned", zap.Int("pid", w.pid), zap.Int("job", seq))
	return w.pid, nil
}

// Resume lets the worker progress.
func (s *Service) Resume(ctx context.Context, pid int) error {
	return s.send(ctx, pid, commandResume)
}

// Suspend pauses the worker.
func (s *Service) Suspend(ctx context.Context, pid int) error {
	return s.send(ctx, pid, commandSuspend)
}

// Terminate stops the worker goroutine. The worker stays registered until it
// acknowledged, so a failed delivery can be retried.
func (s *Service) Terminate(ctx context.Context, pid int) error {
	w, err := s.lookup(ctx, pid)
	if err != nil {
		return err
	}
	if err = s.deliver(ctx, w, commandTerminate); err != nil && !errors.Is(err, unit.ErrNotFound) {
		return err
	}
	if err = s.registry.Delete(ctx, pid); err != nil {
		return s.notFound(pid, err)
	}
	return nil
}

// Work returns the units of work the worker performed so far.
func (s *Service) Work(ctx context.Context, pid int) (int, error) {
	w, err := s.lookup(ctx, pid)
	if err != nil {
		return 0, err
	}
	return int(w.work.Load()), nil
}

// Live returns the pids of running or suspended workers.
func (s *Service) Live(ctx context.Context) []int {
	workers, _ := s.registry.List(ctx)
	ret := make([]int, 0, len(workers))
	for _, w := range workers {
		ret = append(ret, w.pid)
	}
	sort.Ints(ret)
	return ret
}

func (s *Service) send(ctx context.Context, pid int, cmd command) error {
	w, err := s.lookup(ctx, pid)
	if err != nil {
		return err
	}
	return s.deliver(ctx, w, cmd)
}

func (s *Service) deliver(ctx context.Context, w *worker, cmd command) error {
	req := request{command: cmd, ack: make(chan struct{})}
	select {
	case w.requests <- req:
	case <-w.done:
		return fmt.Errorf("%w: pid %d exited", unit.ErrNotFound, w.pid)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) lookup(ctx context.Context, pid int) (*worker, error) {
	w, err := s.registry.Load(ctx, pid)
	if err != nil {
		return nil, s.notFound(pid, err)
	}
	return w, nil
}

func (s *Service) notFound(pid int, err error) error {
	if errors.Is(err, dao.ErrNotFound) {
		return fmt.Errorf("%w: pid %d", unit.ErrNotFound, pid)
	}
	return err
}

var _ unit.Service = (*Service)(nil)
