// Package process holds helpers shared by process instance stores.
package process

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/criteria"
)

// Filter parameter names understood by every process store
const (
	ParamState        = "state"
	ParamDefinitionID = "definitionId"
)

// Fields returns the filterable fields of a process
func Fields(p *execution.Process) map[string]string {
	return map[string]string{
		ParamState:        string(p.State),
		ParamDefinitionID: p.DefinitionID,
	}
}

// Matches reports whether the process satisfies every parameter
func Matches(p *execution.Process, parameters []*dao.Parameter) bool {
	return criteria.Matches(Fields(p), parameters)
}

// SortByID orders processes by id
func SortByID(processes []*execution.Process) {
	sort.Slice(processes, func(i, j int) bool { return processes[i].ID < processes[j].ID })
}

// Encode serialises a process for stores keeping documents
func Encode(p *execution.Process) ([]byte, error) {
	if p == nil {
		return nil, dao.ErrNilEntity
	}
	if p.ID == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process %v: %w", p.ID, err)
	}
	return data, nil
}

// Decode restores a process document
func Decode(data []byte) (*execution.Process, error) {
	ret := &execution.Process{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal process: %w", err)
	}
	return ret, nil
}
