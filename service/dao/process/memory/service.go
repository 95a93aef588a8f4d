package memory

import (
	"context"

	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
	"github.com/viant/shift/service/dao/store"
)

// Service implements an in-memory, thread-safe store for processes. All API
// methods work with copies to eliminate data races between goroutines.
type Service struct {
	*store.MemoryStore[string, execution.Process]
}

var _ dao.Service[string, execution.Process] = (*Service)(nil)

// List returns copies of the processes matching the parameters, ordered by id
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	return s.Filter(func(p *execution.Process) bool {
		return process.Matches(p, parameters)
	}), nil
}

// New creates a memory process store
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, execution.Process](
			func(p *execution.Process) string { return p.ID },
			func(p *execution.Process) *execution.Process { return p.Clone() },
		),
	}
}
