package event

import (
	"time"

	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
)

// Type is a lifecycle event type
type Type string

const (
	TypeProcessStarted         Type = "process-started"
	TypeProcessCompleted       Type = "process-completed"
	TypeActivityStarted        Type = "activity-started"
	TypeActivityCompleted      Type = "activity-completed"
	TypeActivityCancelled      Type = "activity-cancelled"
	TypeVariableCreated        Type = "variable-created"
	TypeVariableUpdated        Type = "variable-updated"
	TypeTimerScheduled         Type = "timer-scheduled"
	TypeTimerFired             Type = "timer-fired"
	TypeJobCancelled           Type = "job-cancelled"
	TypeSubscriptionRegistered Type = "subscription-registered"
	TypeSubscriptionCancelled  Type = "subscription-cancelled"
)

// Context identifies where an event happened
type Context struct {
	ProcessID   string `json:"processID"`
	ExecutionID string `json:"executionID,omitempty"`
	ActivityID  string `json:"activityID,omitempty"`
	EventType   Type   `json:"eventType"`
}

// Event is a typed notification with context and payload
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}

// Lifecycle is the payload of engine lifecycle events
type Lifecycle struct {
	ActivityType graph.Type              `json:"activityType,omitempty"`
	Scope        bool                    `json:"scope,omitempty"`
	Variable     *Variable               `json:"variable,omitempty"`
	Job          *execution.Job          `json:"job,omitempty"`
	Subscription *execution.Subscription `json:"subscription,omitempty"`
}

// Variable describes a variable assignment
type Variable struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Local bool        `json:"local,omitempty"`
}

// Record is an engine lifecycle event
type Record = Event[Lifecycle]

// Type returns the event type
func (e *Event[T]) Type() Type {
	if e == nil || e.Context == nil {
		return ""
	}
	return e.Context.EventType
}

// ForProcess creates a process level event
func ForProcess(eventType Type, processID string) *Record {
	return NewEvent(&Context{ProcessID: processID, EventType: eventType}, Lifecycle{})
}

// ForActivity creates an activity event for the execution positioned at activity
func ForActivity(eventType Type, e *execution.Execution, activity *graph.Activity) *Record {
	ret := NewEvent(&Context{ProcessID: e.ProcessID, ExecutionID: e.ID, ActivityID: e.ActivityID, EventType: eventType}, Lifecycle{Scope: e.IsScope})
	if activity != nil {
		ret.Data.ActivityType = activity.Type
	}
	return ret
}

// ForVariable creates a variable event; a nil owner denotes an instance variable
func ForVariable(eventType Type, processID string, owner *execution.Execution, name string, value interface{}) *Record {
	context := &Context{ProcessID: processID, EventType: eventType}
	variable := &Variable{Name: name, Value: value}
	if owner != nil {
		context.ExecutionID = owner.ID
		context.ActivityID = owner.ActivityID
		variable.Local = true
	}
	return NewEvent(context, Lifecycle{Variable: variable})
}

// ForJob creates a job event
func ForJob(eventType Type, job *execution.Job) *Record {
	return NewEvent(&Context{ProcessID: job.ProcessID, ExecutionID: job.ExecutionID, ActivityID: job.ActivityID, EventType: eventType}, Lifecycle{Job: job.Clone()})
}

// ForSubscription creates a subscription event
func ForSubscription(eventType Type, subscription *execution.Subscription) *Record {
	return NewEvent(&Context{ProcessID: subscription.ProcessID, ExecutionID: subscription.ExecutionID, ActivityID: subscription.ActivityID, EventType: eventType}, Lifecycle{Subscription: subscription.Clone()})
}
