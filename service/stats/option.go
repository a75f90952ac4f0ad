package stats

import (
	"github.com/viant/hds/model/job"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/memory"
	"github.com/viant/hds/service/messaging"
	"github.com/viant/hds/service/queue"
	"go.uber.org/zap"
)

type Option func(*Service)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger.Named("stats")
	}
}

// WithJobs sets the loaded job list printed by print_dl
func WithJobs(jobs []*job.Descriptor) Option {
	return func(s *Service) {
		s.jobs = jobs
	}
}

// WithOutput sets the queue receiving emitted snapshots
func WithOutput(output messaging.Queue[Snapshot]) Option {
	return func(s *Service) {
		s.output = output
	}
}

// WithQueues adds queue lengths to the report
func WithQueues(queues *queue.Set) Option {
	return func(s *Service) {
		s.queues = queues
	}
}

// WithAllocator adds the free pool to the report
func WithAllocator(allocator *memory.Allocator) Option {
	return func(s *Service) {
		s.allocator = allocator
	}
}

// WithProgress adds job counters to the report
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.tracker = tracker
	}
}
