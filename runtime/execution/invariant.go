package execution

import (
	"fmt"

	"github.com/viant/shift/model/graph"
	"go.uber.org/multierr"
)

// Validate checks the structural invariants of the aggregate: a single root,
// exclusive parent ownership without cycles, subscriptions and jobs owned by
// live executions, and unique (execution, activity, kind) subscriptions. When
// a definition is supplied every non-root execution must sit inside its
// parent's scope.
func (p *Process) Validate(definition *graph.Definition) error {
	if p.IsCompleted() {
		if len(p.Executions)+len(p.Subscriptions)+len(p.Jobs) > 0 {
			return fmt.Errorf("completed process %v still owns runtime entities", p.ID)
		}
		return nil
	}
	var err error
	byID := make(map[string]*Execution, len(p.Executions))
	roots := 0
	for _, candidate := range p.Executions {
		if _, ok := byID[candidate.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("duplicate execution %v", candidate.ID))
		}
		byID[candidate.ID] = candidate
		if candidate.IsRoot() {
			roots++
		}
	}
	if roots != 1 {
		err = multierr.Append(err, fmt.Errorf("expected one root execution, found %d", roots))
	}
	for _, candidate := range p.Executions {
		if candidate.IsRoot() {
			continue
		}
		parent, ok := byID[candidate.ParentID]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("execution %v: parent %v not found", candidate.ID, candidate.ParentID))
			continue
		}
		if !parent.IsScope {
			err = multierr.Append(err, fmt.Errorf("execution %v: parent %v is not a scope", candidate.ID, parent.ID))
		}
		if hasCycle(byID, candidate) {
			err = multierr.Append(err, fmt.Errorf("execution %v: parent chain has a cycle", candidate.ID))
		}
		if definition != nil {
			activity := definition.Activity(candidate.ActivityID)
			if activity == nil {
				err = multierr.Append(err, fmt.Errorf("execution %v: unknown activity %v", candidate.ID, candidate.ActivityID))
			} else if activity.ParentID != parent.ActivityID {
				err = multierr.Append(err, fmt.Errorf("execution %v: activity %v is outside scope %q", candidate.ID, activity.ID, parent.ActivityID))
			}
		}
	}
	type tuple struct {
		execution, activity string
		kind                graph.EventKind
	}
	seen := map[tuple]bool{}
	for _, subscription := range p.Subscriptions {
		if _, ok := byID[subscription.ExecutionID]; !ok {
			err = multierr.Append(err, fmt.Errorf("subscription %v: owner %v not found", subscription.ID, subscription.ExecutionID))
		}
		key := tuple{subscription.ExecutionID, subscription.ActivityID, subscription.Kind}
		if seen[key] {
			err = multierr.Append(err, fmt.Errorf("subscription %v duplicates (%v, %v, %v)", subscription.ID, key.execution, key.activity, key.kind))
		}
		seen[key] = true
	}
	for _, job := range p.Jobs {
		if _, ok := byID[job.ExecutionID]; !ok {
			err = multierr.Append(err, fmt.Errorf("job %v: owner %v not found", job.ID, job.ExecutionID))
		}
	}
	return err
}

func hasCycle(byID map[string]*Execution, start *Execution) bool {
	visited := map[string]bool{}
	for current := start; current != nil && !current.IsRoot(); current = byID[current.ParentID] {
		if visited[current.ID] {
			return true
		}
		visited[current.ID] = true
	}
	return false
}
