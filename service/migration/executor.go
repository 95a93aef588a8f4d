package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/lifecycle"
	"github.com/viant/shift/service/scheduler"
)

// Executor applies plans to a process aggregate
type Executor struct {
	operator *lifecycle.Operator
}

// NewExecutor creates an executor
func NewExecutor(operator *lifecycle.Operator) *Executor {
	return &Executor{operator: operator}
}

// Apply verifies that the plan still matches the process, then sets instance
// variables, cancels deepest first, creates outermost first and finally
// enables start events. The caller commits the aggregate only on success.
func (e *Executor) Apply(ctx context.Context, inst *lifecycle.Instance, plan *Plan) (*Result, error) {
	process := inst.Process
	if process.ID != plan.ProcessID {
		return nil, &ValidationError{Directive: -1, Reason: fmt.Sprintf("plan was built for process %v, not %v", plan.ProcessID, process.ID)}
	}
	if err := e.verify(process, plan); err != nil {
		return nil, err
	}
	result := &Result{ProcessID: process.ID, Revision: process.Revision}
	for _, variable := range plan.Variables {
		if err := e.operator.SetVariable(ctx, inst, variable.Name, variable.Value); err != nil {
			return nil, err
		}
	}
	for _, cancel := range plan.Cancels {
		target := process.Execution(cancel.ExecutionID)
		if target == nil {
			return nil, &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: cancel.ExecutionID, ActivityID: cancel.ActivityID, Step: "cancel"}
		}
		if err := e.operator.Cancel(ctx, inst, target, true); err != nil {
			return nil, e.wrap(process, "cancel", err)
		}
		result.Cancelled = append(result.Cancelled, cancel.ExecutionID)
	}
	for _, create := range plan.Creates {
		parent := process.Execution(create.ParentExecutionID)
		if parent == nil {
			return nil, &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: create.ParentExecutionID, Step: "create"}
		}
		if err := e.create(ctx, inst, parent, create, result); err != nil {
			return nil, e.wrap(process, "create", err)
		}
	}
	for _, enable := range plan.Enables {
		owner := process.Execution(enable.ExecutionID)
		if owner == nil {
			return nil, &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: enable.ExecutionID, ActivityID: enable.ScopeActivityID, Step: "enable"}
		}
		if err := e.operator.Register(ctx, inst, owner, inst.Definition.Activity(enable.StartActivityID)); err != nil {
			return nil, e.wrap(process, "enable", err)
		}
		result.Registered++
	}
	if err := process.Validate(inst.Definition); err != nil {
		return nil, fmt.Errorf("migration of %v left an inconsistent tree: %w", process.ID, err)
	}
	return result, nil
}

func (e *Executor) create(ctx context.Context, inst *lifecycle.Instance, parent *execution.Execution, create *Create, result *Result) error {
	activity := inst.Definition.Activity(create.ActivityID)
	if activity == nil {
		return &UnknownActivityError{ActivityID: create.ActivityID, Role: "target"}
	}
	if !create.Scope {
		created, err := e.operator.StartLeaf(ctx, inst, parent, activity, create.Locals)
		if err != nil {
			return err
		}
		result.Created = append(result.Created, created.ID)
		return nil
	}
	created, err := e.operator.StartScope(ctx, inst, parent, activity, create.Locals)
	if err != nil {
		return err
	}
	result.Created = append(result.Created, created.ID)
	for _, child := range create.Children {
		if err := e.create(ctx, inst, created, child, result); err != nil {
			return err
		}
	}
	return nil
}

// verify checks that every execution named by the plan still exists as planned
func (e *Executor) verify(process *execution.Process, plan *Plan) error {
	if process.IsCompleted() {
		return &ConcurrentModificationError{ProcessID: process.ID, Step: "verify"}
	}
	for _, cancel := range plan.Cancels {
		if current := process.Execution(cancel.ExecutionID); current == nil || current.ActivityID != cancel.ActivityID {
			return &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: cancel.ExecutionID, ActivityID: cancel.ActivityID, Step: "verify"}
		}
	}
	for _, create := range plan.Creates {
		if current := process.Execution(create.ParentExecutionID); current == nil || !(current.IsScope || current.IsRoot()) {
			return &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: create.ParentExecutionID, Step: "verify"}
		}
	}
	for _, enable := range plan.Enables {
		if current := process.Execution(enable.ExecutionID); current == nil || current.ActivityID != enable.ScopeActivityID {
			return &ConcurrentModificationError{ProcessID: process.ID, ExecutionID: enable.ExecutionID, ActivityID: enable.ScopeActivityID, Step: "verify"}
		}
	}
	return nil
}

func (e *Executor) wrap(process *execution.Process, step string, err error) error {
	var schedulerErr *scheduler.Error
	if errors.As(err, &schedulerErr) {
		return &SchedulerError{
			ProcessID:   process.ID,
			ExecutionID: schedulerErr.ExecutionID,
			ActivityID:  schedulerErr.ActivityID,
			Step:        step,
			Err:         schedulerErr.Err,
		}
	}
	return err
}
