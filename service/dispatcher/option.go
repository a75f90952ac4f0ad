package dispatcher

import (
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/dao"
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
		s.logger = logger.Named("dispatcher")
	}
}

// WithProgress sets the counters tracker
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.tracker = tracker
	}
}

// WithHistory sets the store recording dropped jobs
func WithHistory(history dao.Service[string, process.Record]) Option {
	return func(s *Service) {
		s.history = history
	}
}
