package hds

import (
	"github.com/viant/hds/service/messaging"
	"github.com/viant/hds/service/stats"
	"github.com/viant/hds/service/unit"
	"go.uber.org/zap"
)

// Option customises the Service.
type Option func(s *Service)

// WithLogger sets the logger shared by all workers
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUnits sets the execution unit backend, overriding the configured executor
func WithUnits(units unit.Service) Option {
	return func(s *Service) {
		s.units = units
	}
}

// WithSnapshotQueue sets the queue receiving periodic snapshots
func WithSnapshotQueue(queue messaging.Queue[stats.Snapshot]) Option {
	return func(s *Service) {
		s.snapshots = queue
	}
}
