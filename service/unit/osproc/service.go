//go:build linux

// Package osproc implements execution units as operating system processes
// controlled with job-control signals.
package osproc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"

	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/dao/store"
	"github.com/viant/hds/service/unit"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Config holds the command every unit runs.
type Config struct {
	Command []string
}

// DefaultConfig returns a command that idles until terminated.
func DefaultConfig() Config {
	return Config{Command: []string{"sleep", "infinity"}}
}

type child struct {
	pid int
	seq int
	cmd *exec.Cmd
}

// Service runs units as child processes.
type Service struct {
	config   Config
	logger   *zap.Logger
	registry *store.MemoryStore[int, child]
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig sets the unit command.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// New creates a process backed unit service.
func New(options ...Option) *Service {
	ret := &Service{
		config:   DefaultConfig(),
		logger:   zap.NewNop(),
		registry: store.NewMemoryStore[int, child](func(c *child) int { return c.pid }),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Spawn starts the unit command and stops it straight away.
func (s *Service) Spawn(ctx context.Context, seq int) (int, error) {
	if len(s.config.Command) == 0 {
		return 0, fmt.Errorf("unit command was empty")
	}
	cmd := exec.Command(s.config.Command[0], s.config.Command[1:]...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start unit for job #%d: %w", seq, err)
	}
	c := &child{pid: cmd.Process.Pid, seq: seq, cmd: cmd}
	if err := unix.Kill(c.pid, unix.SIGSTOP); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return 0, fmt.Errorf("failed to suspend unit %d: %w", c.pid, err)
	}
	if err := s.registry.Save(ctx, c); err != nil {
		return 0, err
	}
	s.logger.Debug("unit spawned", zap.Int("pid", c.pid), zap.Int("job", seq))
	return c.pid, nil
}

// Resume sends SIGCONT.
func (s *Service) Resume(ctx context.Context, pid int) error {
	return s.signal(ctx, pid, unix.SIGCONT)
}

// Suspend sends SIGSTOP.
func (s *Service) Suspend(ctx context.Context, pid int) error {
	return s.signal(ctx, pid, unix.SIGSTOP)
}

// Terminate sends SIGTERM, continues the process so the signal is delivered
// and reaps it.
func (s *Service) Terminate(ctx context.Context, pid int) error {
	c, err := s.lookup(ctx, pid)
	if err != nil {
		return err
	}
	if err = unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to terminate unit %d: %w", pid, err)
	}
	_ = unix.Kill(pid, unix.SIGCONT)
	err = c.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("failed to reap unit %d: %w", pid, err)
	}
	if err = s.registry.Delete(ctx, pid); err != nil {
		return s.notFound(pid, err)
	}
	s.logger.Debug("unit reaped", zap.Int("pid", pid), zap.Int("job", c.seq))
	return nil
}

// Live returns the pids of child processes not yet reaped.
func (s *Service) Live(ctx context.Context) []int {
	children, _ := s.registry.List(ctx)
	ret := make([]int, 0, len(children))
	for _, c := range children {
		ret = append(ret, c.pid)
	}
	sort.Ints(ret)
	return ret
}

func (s *Service) signal(ctx context.Context, pid int, sig unix.Signal) error {
	if _, err := s.lookup(ctx, pid); err != nil {
		return err
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send %v to unit %d: %w", sig, pid, err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, pid int) (*child, error) {
	c, err := s.registry.Load(ctx, pid)
	if err != nil {
		return nil, s.notFound(pid, err)
	}
	return c, nil
}

func (s *Service) notFound(pid int, err error) error {
	if errors.Is(err, dao.ErrNotFound) {
		return fmt.Errorf("%w: pid %d", unit.ErrNotFound, pid)
	}
	return err
}

var _ unit.Service = (*Service)(nil)
