// Package lifecycle creates, registers and removes executions of a process
// instance, publishing every structural change as it happens.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/model/state"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/scheduler"
	"github.com/viant/shift/service/subscription"
)

// Instance is a process aggregate paired with its definition
type Instance struct {
	Process    *execution.Process
	Definition *graph.Definition
}

// Operator performs execution entry and exit steps shared by the normal flow
// and migration
type Operator struct {
	publisher     *event.Publisher[event.Lifecycle]
	subscriptions *subscription.Manager
	scheduler     scheduler.Service
}

// New creates an operator
func New(publisher *event.Publisher[event.Lifecycle], subscriptions *subscription.Manager, scheduler scheduler.Service) *Operator {
	return &Operator{publisher: publisher, subscriptions: subscriptions, scheduler: scheduler}
}

func (o *Operator) publish(ctx context.Context, record *event.Record) error {
	return o.publisher.Publish(ctx, record)
}

// Publish delivers a record to the listeners
func (o *Operator) Publish(ctx context.Context, record *event.Record) error {
	return o.publish(ctx, record)
}

// SetVariable assigns an instance variable
func (o *Operator) SetVariable(ctx context.Context, inst *Instance, name string, value interface{}) error {
	eventType := event.TypeVariableUpdated
	if inst.Process.SetVariable(name, value) {
		eventType = event.TypeVariableCreated
	}
	return o.publish(ctx, event.ForVariable(eventType, inst.Process.ID, nil, name, value))
}

// SetLocal assigns a variable local to owner; the root owner maps to instance variables
func (o *Operator) SetLocal(ctx context.Context, inst *Instance, owner *execution.Execution, name string, value interface{}) error {
	if owner.IsRoot() {
		return o.SetVariable(ctx, inst, name, value)
	}
	created, err := inst.Process.SetLocal(owner.ID, name, value)
	if err != nil {
		return err
	}
	eventType := event.TypeVariableUpdated
	if created {
		eventType = event.TypeVariableCreated
	}
	return o.publish(ctx, event.ForVariable(eventType, inst.Process.ID, owner, name, value))
}

// InitVariables assigns data object defaults, replaced by same-named
// overrides, followed by the remaining overrides in their given order
func (o *Operator) InitVariables(ctx context.Context, inst *Instance, owner *execution.Execution, dataObjects, overrides state.Parameters) error {
	for _, dataObject := range dataObjects {
		value := dataObject.Value
		if override, ok := overrides.Get(dataObject.Name); ok {
			value = override.Value
		}
		if err := o.SetLocal(ctx, inst, owner, dataObject.Name, value); err != nil {
			return err
		}
	}
	for _, override := range overrides {
		if _, ok := dataObjects.Get(override.Name); ok {
			continue
		}
		if err := o.SetLocal(ctx, inst, owner, override.Name, override.Value); err != nil {
			return err
		}
	}
	return nil
}

// StartScope enters a scope activity under parent: activity-started, then the
// scope's variables, then its boundary and event sub-process registrations
func (o *Operator) StartScope(ctx context.Context, inst *Instance, parent *execution.Execution, scope *graph.Activity, locals state.Parameters) (*execution.Execution, error) {
	created := inst.Process.AddExecution(parent, scope.ID, true)
	if err := o.publish(ctx, event.ForActivity(event.TypeActivityStarted, created, scope)); err != nil {
		return nil, err
	}
	if err := o.InitVariables(ctx, inst, created, scope.DataObjects, locals); err != nil {
		return nil, err
	}
	if err := o.RegisterScope(ctx, inst, created); err != nil {
		return nil, err
	}
	return created, nil
}

// StartLeaf enters a non-scope activity under parent: local variables, then
// activity-started, then catch and boundary registrations
func (o *Operator) StartLeaf(ctx context.Context, inst *Instance, parent *execution.Execution, activity *graph.Activity, locals state.Parameters) (*execution.Execution, error) {
	created := inst.Process.AddExecution(parent, activity.ID, false)
	for _, local := range locals {
		if err := o.SetLocal(ctx, inst, created, local.Name, local.Value); err != nil {
			return nil, err
		}
	}
	if err := o.publish(ctx, event.ForActivity(event.TypeActivityStarted, created, activity)); err != nil {
		return nil, err
	}
	if activity.Type == graph.TypeCatchEvent && activity.Event != nil {
		if err := o.Register(ctx, inst, created, activity); err != nil {
			return nil, err
		}
	}
	if err := o.registerBoundary(ctx, inst, created); err != nil {
		return nil, err
	}
	return created, nil
}

// RegisterScope registers the boundary events of a scope execution and the
// start events of event sub-processes declared in it
func (o *Operator) RegisterScope(ctx context.Context, inst *Instance, owner *execution.Execution) error {
	if err := o.registerBoundary(ctx, inst, owner); err != nil {
		return err
	}
	for _, start := range inst.Definition.EventStarts(owner.ActivityID) {
		if err := o.Register(ctx, inst, owner, start); err != nil {
			return err
		}
	}
	return nil
}

func (o *Operator) registerBoundary(ctx context.Context, inst *Instance, owner *execution.Execution) error {
	if owner.IsRoot() {
		return nil
	}
	for _, boundary := range inst.Definition.BoundaryEvents(owner.ActivityID) {
		if err := o.Register(ctx, inst, owner, boundary); err != nil {
			return err
		}
	}
	return nil
}

// Register creates the timer job or subscription for activity's event on
// owner. An existing registration of the same activity and kind is replaced.
func (o *Operator) Register(ctx context.Context, inst *Instance, owner *execution.Execution, activity *graph.Activity) error {
	definition := activity.Event
	if definition == nil {
		return fmt.Errorf("activity %v has no event definition", activity.ID)
	}
	process := inst.Process
	if definition.Kind != graph.EventTimer {
		created, stale := o.subscriptions.Register(process, owner.ID, activity.ID, definition.Kind, definition.Ref)
		if stale != nil {
			if err := o.publish(ctx, event.ForSubscription(event.TypeSubscriptionCancelled, stale)); err != nil {
				return err
			}
		}
		return o.publish(ctx, event.ForSubscription(event.TypeSubscriptionRegistered, created))
	}
	for _, stale := range process.JobsOf(owner.ID) {
		if stale.ActivityID != activity.ID {
			continue
		}
		if err := o.scheduler.Remove(ctx, stale.ID); err != nil {
			return &scheduler.Error{Op: "remove", ExecutionID: owner.ID, ActivityID: activity.ID, Err: err}
		}
		process.RemoveJob(stale.ID)
		if err := o.publish(ctx, event.ForJob(event.TypeJobCancelled, stale)); err != nil {
			return err
		}
	}
	job, err := o.scheduler.ScheduleTimer(ctx, process.ID, owner.ID, activity.ID, definition.Due)
	if err != nil {
		return &scheduler.Error{Op: "schedule", ExecutionID: owner.ID, ActivityID: activity.ID, Err: err}
	}
	process.AddJob(job)
	return o.publish(ctx, event.ForJob(event.TypeTimerScheduled, job))
}

// Unregister deletes the jobs and subscriptions owner holds for activityID
func (o *Operator) Unregister(ctx context.Context, inst *Instance, owner *execution.Execution, activityID string) error {
	process := inst.Process
	for _, job := range process.JobsOf(owner.ID) {
		if job.ActivityID != activityID {
			continue
		}
		if err := o.scheduler.Remove(ctx, job.ID); err != nil {
			return &scheduler.Error{Op: "remove", ExecutionID: owner.ID, ActivityID: activityID, Err: err}
		}
		process.RemoveJob(job.ID)
		if err := o.publish(ctx, event.ForJob(event.TypeJobCancelled, job)); err != nil {
			return err
		}
	}
	for _, candidate := range process.SubscriptionsOf(owner.ID) {
		if candidate.ActivityID != activityID {
			continue
		}
		o.subscriptions.Consume(process, candidate.ID)
		if err := o.publish(ctx, event.ForSubscription(event.TypeSubscriptionCancelled, candidate)); err != nil {
			return err
		}
	}
	return nil
}

// Consume deletes a triggered subscription without reporting a cancellation
func (o *Operator) Consume(inst *Instance, subscriptionID string) *execution.Subscription {
	return o.subscriptions.Consume(inst.Process, subscriptionID)
}

// FireJob deletes a due job from the process and the scheduler and reports it fired
func (o *Operator) FireJob(ctx context.Context, inst *Instance, job *execution.Job) error {
	if err := o.scheduler.Remove(ctx, job.ID); err != nil {
		return &scheduler.Error{Op: "remove", ExecutionID: job.ExecutionID, ActivityID: job.ActivityID, Err: err}
	}
	inst.Process.RemoveJob(job.ID)
	return o.publish(ctx, event.ForJob(event.TypeTimerFired, job))
}

// Release deletes the jobs and subscriptions owned by the execution,
// reporting each one
func (o *Operator) Release(ctx context.Context, inst *Instance, owner *execution.Execution) error {
	process := inst.Process
	if jobs := process.JobsOf(owner.ID); len(jobs) > 0 {
		if _, err := o.scheduler.CancelJobsForExecution(ctx, owner.ID); err != nil {
			return &scheduler.Error{Op: "cancel jobs", ExecutionID: owner.ID, ActivityID: owner.ActivityID, Err: err}
		}
		for _, job := range jobs {
			process.RemoveJob(job.ID)
			if err := o.publish(ctx, event.ForJob(event.TypeJobCancelled, job)); err != nil {
				return err
			}
		}
	}
	for _, cancelled := range o.subscriptions.CancelForExecution(process, owner.ID) {
		if err := o.publish(ctx, event.ForSubscription(event.TypeSubscriptionCancelled, cancelled)); err != nil {
			return err
		}
	}
	return nil
}

// Cancel removes target and its subtree deepest first. Owned jobs and
// subscriptions are reported before their owner. When collapse is set only
// target itself is reported as cancelled.
func (o *Operator) Cancel(ctx context.Context, inst *Instance, target *execution.Execution, collapse bool) error {
	for _, descendant := range inst.Process.Descendants(target.ID) {
		if err := o.remove(ctx, inst, descendant, event.TypeActivityCancelled, !collapse); err != nil {
			return err
		}
	}
	return o.remove(ctx, inst, target, event.TypeActivityCancelled, true)
}

// Leave completes the activity of a childless execution and removes it
func (o *Operator) Leave(ctx context.Context, inst *Instance, target *execution.Execution) error {
	return o.remove(ctx, inst, target, event.TypeActivityCompleted, true)
}

func (o *Operator) remove(ctx context.Context, inst *Instance, target *execution.Execution, eventType event.Type, report bool) error {
	if err := o.Release(ctx, inst, target); err != nil {
		return err
	}
	if report {
		if err := o.publish(ctx, event.ForActivity(eventType, target, inst.Definition.Activity(target.ActivityID))); err != nil {
			return err
		}
	}
	return inst.Process.RemoveExecution(target.ID)
}
