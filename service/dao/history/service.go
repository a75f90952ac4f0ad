// Package history keeps the accounting record of every entry that left the
// system.
package history

import (
	"context"
	"sort"

	"github.com/viant/hds/model/process"
	"github.com/viant/hds/service/dao"
	"github.com/viant/hds/service/dao/criteria"
	"github.com/viant/hds/service/dao/store"
)

// Service stores records keyed by entry id.
type Service struct {
	*store.MemoryStore[string, process.Record]
}

var _ dao.Service[string, process.Record] = (*Service)(nil)

// List returns records ordered by finish time. The "Outcome" parameter
// narrows the result.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.Record, error) {
	records, err := s.MemoryStore.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].FinishedAt.Equal(records[j].FinishedAt) {
			return records[i].Seq < records[j].Seq
		}
		return records[i].FinishedAt.Before(records[j].FinishedAt)
	})
	return records, nil
}

// New creates an empty history.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, process.Record](
			func(r *process.Record) string { return r.ID },
			store.WithFilter[string, process.Record](func(r *process.Record, parameters []*dao.Parameter) bool {
				return criteria.Match("Outcome", string(r.Outcome), parameters)
			}),
		),
	}
}
