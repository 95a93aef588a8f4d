package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/internal/idgen"
	"github.com/viant/shift/model/graph"
)

// Process state constants
const (
	StateRunning   = "running"
	StateCompleted = "completed"
)

var (
	// ErrHasChildren is returned when removing an execution that still owns children
	ErrHasChildren = errors.New("execution still owns child executions")
	// ErrOwnsResources is returned when removing an execution that still owns
	// subscriptions or jobs
	ErrOwnsResources = errors.New("execution still owns subscriptions or jobs")
)

// Process is a process instance aggregate: it exclusively owns its execution
// tree, instance variables, event subscriptions and timer jobs.
type Process struct {
	ID            string                 `json:"id"`
	DefinitionID  string                 `json:"definitionId"`
	State         string                 `json:"state"`
	Revision      int                    `json:"revision"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Executions    []*Execution           `json:"executions,omitempty"`
	Subscriptions []*Subscription        `json:"subscriptions,omitempty"`
	Jobs          []*Job                 `json:"jobs,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	FinishedAt    *time.Time             `json:"finishedAt,omitempty"`
}

// New creates a running process with its root scope execution
func New(id, definitionID string) *Process {
	if id == "" {
		id = idgen.New()
	}
	now := clock.Now()
	ret := &Process{
		ID:           id,
		DefinitionID: definitionID,
		State:        StateRunning,
		Variables:    map[string]interface{}{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ret.Executions = []*Execution{{
		ID:        idgen.New(),
		ProcessID: id,
		IsScope:   true,
		State:     StateActive,
		CreatedAt: now,
	}}
	return ret
}

// IsCompleted reports an ended process
func (p *Process) IsCompleted() bool {
	return p.State == StateCompleted
}

// Root returns the root execution, nil once the process ended
func (p *Process) Root() *Execution {
	for _, candidate := range p.Executions {
		if candidate.IsRoot() {
			return candidate
		}
	}
	return nil
}

// Execution returns execution by id
func (p *Process) Execution(id string) *Execution {
	for _, candidate := range p.Executions {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// Children returns direct children in creation order
func (p *Process) Children(id string) []*Execution {
	var ret []*Execution
	for _, candidate := range p.Executions {
		if candidate.ParentID == id && id != "" {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// ExecutionsAt returns executions positioned at the activity
func (p *Process) ExecutionsAt(activityID string) []*Execution {
	var ret []*Execution
	for _, candidate := range p.Executions {
		if candidate.ActivityID == activityID && !candidate.IsRoot() {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// Ancestors returns the chain of parents, nearest first, ending with the root
func (p *Process) Ancestors(id string) []*Execution {
	var ret []*Execution
	current := p.Execution(id)
	for current != nil && !current.IsRoot() {
		parent := p.Execution(current.ParentID)
		if parent == nil {
			break
		}
		ret = append(ret, parent)
		current = parent
	}
	return ret
}

// Depth returns the number of ancestors of the execution
func (p *Process) Depth(id string) int {
	return len(p.Ancestors(id))
}

// Descendants returns all executions below id, deepest first; siblings keep
// creation order.
func (p *Process) Descendants(id string) []*Execution {
	var ret []*Execution
	var visit func(parentID string)
	visit = func(parentID string) {
		for _, child := range p.Children(parentID) {
			visit(child.ID)
			ret = append(ret, child)
		}
	}
	visit(id)
	return ret
}

// ScopeExecution returns the nearest scope execution at or above id
func (p *Process) ScopeExecution(id string) *Execution {
	current := p.Execution(id)
	for current != nil {
		if current.IsScope {
			return current
		}
		current = p.Execution(current.ParentID)
	}
	return nil
}

// AddExecution creates a child execution of parent positioned at activityID
func (p *Process) AddExecution(parent *Execution, activityID string, scope bool) *Execution {
	ret := &Execution{
		ID:         idgen.New(),
		ProcessID:  p.ID,
		ParentID:   parent.ID,
		ActivityID: activityID,
		IsScope:    scope,
		State:      StateActive,
		CreatedAt:  clock.Now(),
	}
	p.Executions = append(p.Executions, ret)
	p.refreshConcurrency(parent.ID)
	return ret
}

// RemoveExecution detaches and deletes an execution. It must own no children,
// subscriptions or jobs.
func (p *Process) RemoveExecution(id string) error {
	target := p.Execution(id)
	if target == nil {
		return fmt.Errorf("execution %v not found", id)
	}
	if len(p.Children(id)) > 0 {
		return fmt.Errorf("failed to remove %v: %w", id, ErrHasChildren)
	}
	if len(p.SubscriptionsOf(id)) > 0 || len(p.JobsOf(id)) > 0 {
		return fmt.Errorf("failed to remove %v: %w", id, ErrOwnsResources)
	}
	for i, candidate := range p.Executions {
		if candidate.ID == id {
			p.Executions = append(p.Executions[:i], p.Executions[i+1:]...)
			break
		}
	}
	if target.ParentID != "" {
		p.refreshConcurrency(target.ParentID)
	}
	return nil
}

func (p *Process) refreshConcurrency(parentID string) {
	children := p.Children(parentID)
	for _, child := range children {
		child.IsConcurrent = len(children) > 1
	}
}

// AddSubscription registers a subscription owned by executionID
func (p *Process) AddSubscription(executionID, activityID string, kind graph.EventKind, key string) *Subscription {
	ret := &Subscription{
		ID:          idgen.New(),
		ProcessID:   p.ID,
		ExecutionID: executionID,
		ActivityID:  activityID,
		Kind:        kind,
		Key:         key,
		CreatedAt:   clock.Now(),
	}
	p.Subscriptions = append(p.Subscriptions, ret)
	return ret
}

// RemoveSubscription deletes a subscription, returning it when present
func (p *Process) RemoveSubscription(id string) *Subscription {
	for i, candidate := range p.Subscriptions {
		if candidate.ID == id {
			p.Subscriptions = append(p.Subscriptions[:i], p.Subscriptions[i+1:]...)
			return candidate
		}
	}
	return nil
}

// Subscription returns subscription by id
func (p *Process) Subscription(id string) *Subscription {
	for _, candidate := range p.Subscriptions {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// SubscriptionsOf returns subscriptions owned by the execution
func (p *Process) SubscriptionsOf(executionID string) []*Subscription {
	var ret []*Subscription
	for _, candidate := range p.Subscriptions {
		if candidate.ExecutionID == executionID {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// FindSubscriptions returns subscriptions of kind correlated by key
func (p *Process) FindSubscriptions(kind graph.EventKind, key string) []*Subscription {
	var ret []*Subscription
	for _, candidate := range p.Subscriptions {
		if candidate.Kind == kind && candidate.Key == key {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// AddJob records a scheduled job
func (p *Process) AddJob(job *Job) {
	p.Jobs = append(p.Jobs, job)
}

// RemoveJob deletes a job, returning it when present
func (p *Process) RemoveJob(id string) *Job {
	for i, candidate := range p.Jobs {
		if candidate.ID == id {
			p.Jobs = append(p.Jobs[:i], p.Jobs[i+1:]...)
			return candidate
		}
	}
	return nil
}

// Job returns job by id
func (p *Process) Job(id string) *Job {
	for _, candidate := range p.Jobs {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// JobsOf returns jobs owned by the execution
func (p *Process) JobsOf(executionID string) []*Job {
	var ret []*Job
	for _, candidate := range p.Jobs {
		if candidate.ExecutionID == executionID {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// Complete ends the process; the tree must already be empty except for the root
func (p *Process) Complete() {
	now := clock.Now()
	p.State = StateCompleted
	p.Executions = nil
	p.Subscriptions = nil
	p.Jobs = nil
	p.FinishedAt = &now
	p.UpdatedAt = now
}

// Clone returns a deep copy of the aggregate
func (p *Process) Clone() *Process {
	ret := *p
	ret.Variables = cloneMap(p.Variables)
	ret.Executions = make([]*Execution, 0, len(p.Executions))
	for _, item := range p.Executions {
		ret.Executions = append(ret.Executions, item.Clone())
	}
	ret.Subscriptions = make([]*Subscription, 0, len(p.Subscriptions))
	for _, item := range p.Subscriptions {
		ret.Subscriptions = append(ret.Subscriptions, item.Clone())
	}
	ret.Jobs = make([]*Job, 0, len(p.Jobs))
	for _, item := range p.Jobs {
		ret.Jobs = append(ret.Jobs, item.Clone())
	}
	if p.FinishedAt != nil {
		finished := *p.FinishedAt
		ret.FinishedAt = &finished
	}
	return &ret
}
