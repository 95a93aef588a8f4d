package processor

import (
	"context"
	"fmt"
	"log/slog"

	ilog "github.com/viant/shift/internal/log"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/model/state"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/lifecycle"
)

// Config represents processor configuration
type Config struct {
	// MaxSteps bounds activities entered by one call, guarding against flow cycles without wait states
	MaxSteps int
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{MaxSteps: 1000}
}

// Service runs the normal flow of process instances
type Service struct {
	config   Config
	operator *lifecycle.Operator
	logger   *slog.Logger
}

// run tracks a single call
type run struct {
	*Service
	inst  *lifecycle.Instance
	steps int
}

// New creates a processor
func New(operator *lifecycle.Operator, logger *slog.Logger, options ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	ret := &Service{config: DefaultConfig(), operator: operator, logger: logger}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *Service) newRun(inst *lifecycle.Instance) *run {
	return &run{Service: s, inst: inst}
}

// Start creates an instance of the definition: instance variables, process
// data objects, event sub-process start registrations, then the flow after
// the start event up to the first wait states. A failure after registration
// returns the partial process with the jobs it scheduled.
func (s *Service) Start(ctx context.Context, definition *graph.Definition, processID string, variables state.Parameters) (*execution.Process, error) {
	process := execution.New(processID, definition.ID)
	inst := &lifecycle.Instance{Process: process, Definition: definition}
	root := process.Root()
	if err := s.operator.Publish(ctx, event.ForProcess(event.TypeProcessStarted, process.ID)); err != nil {
		return nil, err
	}
	for _, variable := range variables {
		if err := s.operator.SetVariable(ctx, inst, variable.Name, variable.Value); err != nil {
			return nil, err
		}
	}
	for _, dataObject := range definition.DataObjects {
		if _, ok := variables.Get(dataObject.Name); ok {
			continue
		}
		if err := s.operator.SetVariable(ctx, inst, dataObject.Name, dataObject.Value); err != nil {
			return nil, err
		}
	}
	if err := s.operator.RegisterScope(ctx, inst, root); err != nil {
		return process, err
	}
	start := definition.InitialStart(graph.RootScope)
	if start == nil {
		return process, fmt.Errorf("definition %v has no start event", definition.ID)
	}
	if err := s.newRun(inst).advance(ctx, root, start); err != nil {
		return process, err
	}
	s.logger.Debug("process started", ilog.ProcessID(process.ID), ilog.DefinitionID(definition.ID))
	return process, nil
}

// Complete leaves the task the execution waits at, assigning variables first
func (s *Service) Complete(ctx context.Context, inst *lifecycle.Instance, executionID string, variables state.Parameters) error {
	if inst.Process.IsCompleted() {
		return ErrProcessCompleted
	}
	target := inst.Process.Execution(executionID)
	if target == nil {
		return fmt.Errorf("failed to complete %v: %w", executionID, ErrExecutionNotFound)
	}
	activity := inst.Definition.Activity(target.ActivityID)
	if activity == nil || activity.Type != graph.TypeTask {
		return fmt.Errorf("failed to complete %v at %q: %w", executionID, target.ActivityID, ErrNotWaiting)
	}
	for _, variable := range variables {
		if err := s.operator.SetVariable(ctx, inst, variable.Name, variable.Value); err != nil {
			return err
		}
	}
	r := s.newRun(inst)
	parent := inst.Process.Execution(target.ParentID)
	if err := s.operator.Leave(ctx, inst, target); err != nil {
		return err
	}
	return r.advance(ctx, parent, activity)
}

// Signal triggers every subscription of the instance waiting for the signal.
// It returns the number of triggered subscriptions.
func (s *Service) Signal(ctx context.Context, inst *lifecycle.Instance, name string) (int, error) {
	return s.correlate(ctx, inst, graph.EventSignal, name, false)
}

// Message triggers the first subscription of the instance waiting for the
// message. It returns the number of triggered subscriptions.
func (s *Service) Message(ctx context.Context, inst *lifecycle.Instance, name string) (int, error) {
	return s.correlate(ctx, inst, graph.EventMessage, name, true)
}

func (s *Service) correlate(ctx context.Context, inst *lifecycle.Instance, kind graph.EventKind, key string, first bool) (int, error) {
	if inst.Process.IsCompleted() {
		return 0, ErrProcessCompleted
	}
	var ids []string
	for _, candidate := range inst.Process.FindSubscriptions(kind, key) {
		ids = append(ids, candidate.ID)
	}
	r := s.newRun(inst)
	triggered := 0
	for _, id := range ids {
		subscription := inst.Process.Subscription(id)
		if subscription == nil {
			continue
		}
		owner := inst.Process.Execution(subscription.ExecutionID)
		activity := inst.Definition.Activity(subscription.ActivityID)
		if owner == nil || activity == nil {
			continue
		}
		if !repeatable(activity) {
			s.operator.Consume(inst, subscription.ID)
		}
		if err := r.trigger(ctx, owner, activity); err != nil {
			return triggered, err
		}
		triggered++
		if first || inst.Process.IsCompleted() {
			break
		}
	}
	return triggered, nil
}

// FireJob triggers a due timer job. A cancelled job is not found and the
// instance is left untouched.
func (s *Service) FireJob(ctx context.Context, inst *lifecycle.Instance, jobID string) error {
	if inst.Process.IsCompleted() {
		return ErrProcessCompleted
	}
	job := inst.Process.Job(jobID)
	if job == nil {
		return fmt.Errorf("failed to fire %v: %w", jobID, ErrJobNotFound)
	}
	owner := inst.Process.Execution(job.ExecutionID)
	if owner == nil {
		return fmt.Errorf("failed to fire %v: owner %v: %w", jobID, job.ExecutionID, ErrExecutionNotFound)
	}
	activity := inst.Definition.Activity(job.ActivityID)
	if activity == nil {
		return fmt.Errorf("failed to fire %v: unknown activity %v", jobID, job.ActivityID)
	}
	if err := s.operator.FireJob(ctx, inst, job); err != nil {
		return err
	}
	return s.newRun(inst).trigger(ctx, owner, activity)
}

// repeatable reports subscriptions kept after triggering: non-interrupting
// boundary and event sub-process starts keep listening
func repeatable(activity *graph.Activity) bool {
	if activity.Type == graph.TypeCatchEvent || activity.Event == nil {
		return false
	}
	return !activity.Event.IsInterrupting()
}

// trigger reacts to the event of activity registered on owner
func (r *run) trigger(ctx context.Context, owner *execution.Execution, activity *graph.Activity) error {
	process := r.inst.Process
	switch activity.Type {
	case graph.TypeCatchEvent:
		parent := process.Execution(owner.ParentID)
		if err := r.operator.Leave(ctx, r.inst, owner); err != nil {
			return err
		}
		return r.advance(ctx, parent, activity)
	case graph.TypeBoundaryEvent:
		parent := process.Execution(owner.ParentID)
		if activity.Event.IsInterrupting() {
			if err := r.operator.Cancel(ctx, r.inst, owner, false); err != nil {
				return err
			}
		}
		return r.advance(ctx, parent, activity)
	case graph.TypeStartEvent:
		return r.startEventSubProcess(ctx, owner, activity)
	}
	return fmt.Errorf("activity %v of type %v cannot be triggered: %w", activity.ID, activity.Type, ErrUnsupported)
}

// startEventSubProcess enters the event sub-process of start inside scope. An
// interrupting start cancels the scope's other work and its other event
// sub-process registrations first.
func (r *run) startEventSubProcess(ctx context.Context, scope *execution.Execution, start *graph.Activity) error {
	definition := r.inst.Definition
	host := definition.Activity(start.ParentID)
	if host == nil {
		return fmt.Errorf("event sub-process of %v not found", start.ID)
	}
	if start.Event.IsInterrupting() {
		for _, child := range r.inst.Process.Children(scope.ID) {
			if err := r.operator.Cancel(ctx, r.inst, child, false); err != nil {
				return err
			}
		}
		for _, other := range definition.EventStarts(scope.ActivityID) {
			if err := r.operator.Unregister(ctx, r.inst, scope, other.ID); err != nil {
				return err
			}
		}
	}
	created, err := r.operator.StartScope(ctx, r.inst, scope, host, nil)
	if err != nil {
		return err
	}
	return r.advance(ctx, created, start)
}

// advance takes the outgoing flows of from inside parent
func (r *run) advance(ctx context.Context, parent *execution.Execution, from *graph.Activity) error {
	flows, err := r.selectFlows(parent, from)
	if err != nil {
		return err
	}
	if len(flows) == 0 {
		return r.completeScope(ctx, parent)
	}
	for _, flow := range flows {
		if r.inst.Process.Execution(parent.ID) == nil {
			return nil
		}
		if err := r.enter(ctx, parent, r.inst.Definition.Activity(flow.Target)); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) selectFlows(parent *execution.Execution, from *graph.Activity) ([]*graph.Flow, error) {
	var ret []*graph.Flow
	var fallback *graph.Flow
	for _, flow := range from.Outgoing {
		if flow.Condition == "" {
			if from.Type == graph.TypeExclusiveGateway {
				if fallback == nil {
					fallback = flow
				}
				continue
			}
			ret = append(ret, flow)
			continue
		}
		value, _ := r.inst.Process.Variable(parent.ID, flow.Condition)
		if !execution.IsTruthy(value) {
			continue
		}
		ret = append(ret, flow)
		if from.Type == graph.TypeExclusiveGateway {
			return ret, nil
		}
	}
	if from.Type == graph.TypeExclusiveGateway {
		if fallback == nil {
			return nil, fmt.Errorf("gateway %v: %w", from.ID, ErrNoFlow)
		}
		return []*graph.Flow{fallback}, nil
	}
	if len(ret) == 0 && len(from.Outgoing) > 0 {
		return nil, fmt.Errorf("activity %v: %w", from.ID, ErrNoFlow)
	}
	return ret, nil
}

// enter moves a token into activity under parent
func (r *run) enter(ctx context.Context, parent *execution.Execution, activity *graph.Activity) error {
	r.steps++
	if r.config.MaxSteps > 0 && r.steps > r.config.MaxSteps {
		return fmt.Errorf("process %v: %w", r.inst.Process.ID, ErrStepLimit)
	}
	if activity.IsMultiInstance() {
		return fmt.Errorf("multi-instance activity %v: %w", activity.ID, ErrUnsupported)
	}
	switch activity.Type {
	case graph.TypeTask, graph.TypeCatchEvent:
		_, err := r.operator.StartLeaf(ctx, r.inst, parent, activity, nil)
		return err
	case graph.TypeSubProcess:
		scope, err := r.operator.StartScope(ctx, r.inst, parent, activity, nil)
		if err != nil {
			return err
		}
		start := r.inst.Definition.InitialStart(activity.ID)
		if start == nil {
			return fmt.Errorf("sub-process %v has no start event", activity.ID)
		}
		return r.advance(ctx, scope, start)
	case graph.TypeExclusiveGateway:
		return r.advance(ctx, parent, activity)
	case graph.TypeParallelGateway:
		return r.join(ctx, parent, activity)
	case graph.TypeEndEvent:
		return r.completeScope(ctx, parent)
	}
	return fmt.Errorf("activity %v of type %v cannot be entered by a flow: %w", activity.ID, activity.Type, ErrUnsupported)
}

// join parks tokens at a parallel gateway until one arrived per incoming flow,
// then forks the outgoing flows
func (r *run) join(ctx context.Context, parent *execution.Execution, gateway *graph.Activity) error {
	if gateway.Incoming > 1 {
		var waiting []*execution.Execution
		for _, child := range r.inst.Process.Children(parent.ID) {
			if child.ActivityID == gateway.ID && child.State == execution.StateWaiting {
				waiting = append(waiting, child)
			}
		}
		if len(waiting)+1 < gateway.Incoming {
			parked, err := r.operator.StartLeaf(ctx, r.inst, parent, gateway, nil)
			if err != nil {
				return err
			}
			parked.State = execution.StateWaiting
			return nil
		}
		for _, parked := range waiting {
			if err := r.operator.Leave(ctx, r.inst, parked); err != nil {
				return err
			}
		}
	}
	return r.advance(ctx, parent, gateway)
}

// completeScope ends a scope without children: the root ends the process,
// other scopes continue along their outgoing flows
func (r *run) completeScope(ctx context.Context, scope *execution.Execution) error {
	process := r.inst.Process
	if scope == nil || process.Execution(scope.ID) == nil || len(process.Children(scope.ID)) > 0 {
		return nil
	}
	if scope.IsRoot() {
		if err := r.operator.Release(ctx, r.inst, scope); err != nil {
			return err
		}
		if err := r.operator.Publish(ctx, event.ForProcess(event.TypeProcessCompleted, process.ID)); err != nil {
			return err
		}
		process.Complete()
		r.logger.Debug("process completed", ilog.ProcessID(process.ID))
		return nil
	}
	activity := r.inst.Definition.Activity(scope.ActivityID)
	parent := process.Execution(scope.ParentID)
	if err := r.operator.Leave(ctx, r.inst, scope); err != nil {
		return err
	}
	if activity == nil || activity.Type == graph.TypeEventSubProcess {
		return r.completeScope(ctx, parent)
	}
	return r.advance(ctx, parent, activity)
}
