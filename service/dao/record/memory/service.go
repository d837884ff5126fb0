package memory

import (
	"context"
	"sort"

	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/dao/criteria"
	"github.com/viant/jobflow/service/dao/store"
)

// Service keeps process records in memory
type Service struct {
	*store.MemoryStore[string, execution.Record]
}

var _ dao.Service[string, execution.Record] = (*Service)(nil)

// Save stores a record
func (s *Service) Save(ctx context.Context, record *execution.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	return s.MemoryStore.Save(ctx, record)
}

// List returns records matching the State parameter, newest first
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Record, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*execution.Record
	for _, record := range all {
		if criteria.FilterByState(record.State, parameters) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, execution.Record](func(r *execution.Record) string {
		return r.ID
	})}
}
