package execution

import (
	"time"
)

// State represents the state of an execution
type State string

const (
	// StateActive marks a token resting at or running through its activity
	StateActive State = "active"
	// StateWaiting marks a token parked at a joining parallel gateway
	StateWaiting State = "waiting"
)

// Execution is a live token of a process instance. The root execution
// represents the process scope itself and has neither parent nor activity.
type Execution struct {
	ID           string                 `json:"id"`
	ProcessID    string                 `json:"processId"`
	ParentID     string                 `json:"parentId,omitempty"`
	ActivityID   string                 `json:"activityId,omitempty"`
	IsScope      bool                   `json:"isScope,omitempty"`
	IsConcurrent bool                   `json:"isConcurrent,omitempty"`
	State        State                  `json:"state"`
	Variables    map[string]interface{} `json:"variables,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// IsRoot reports the process root execution
func (e *Execution) IsRoot() bool {
	return e.ParentID == ""
}

// LocalVariable returns an execution-local variable
func (e *Execution) LocalVariable(name string) (interface{}, bool) {
	if e.Variables == nil {
		return nil, false
	}
	value, ok := e.Variables[name]
	return value, ok
}

// Clone returns a copy of the execution with its own variable map
func (e *Execution) Clone() *Execution {
	ret := *e
	ret.Variables = cloneMap(e.Variables)
	return &ret
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(src))
	for k, v := range src {
		ret[k] = v
	}
	return ret
}
