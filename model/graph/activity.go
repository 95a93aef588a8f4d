package graph

import (
	"github.com/viant/shift/model/state"
)

// Type identifies the kind of activity node
type Type string

const (
	TypeStartEvent       Type = "startEvent"
	TypeEndEvent         Type = "endEvent"
	TypeTask             Type = "task"
	TypeExclusiveGateway Type = "exclusiveGateway"
	TypeParallelGateway  Type = "parallelGateway"
	TypeCatchEvent       Type = "intermediateCatchEvent"
	TypeBoundaryEvent    Type = "boundaryEvent"
	TypeSubProcess       Type = "subProcess"
	TypeEventSubProcess  Type = "eventSubProcess"
)

// EventKind identifies the trigger of an event definition
type EventKind string

const (
	EventSignal  EventKind = "signal"
	EventMessage EventKind = "message"
	EventTimer   EventKind = "timer"
)

type (
	// Activity is an immutable node of a process definition, shared by all
	// instances of that definition.
	Activity struct {
		ID            string           `json:"id" yaml:"id"`
		Name          string           `json:"name,omitempty" yaml:"name,omitempty"`
		Type          Type             `json:"type" yaml:"type"`
		Outgoing      []*Flow          `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
		Event         *Event           `json:"event,omitempty" yaml:"event,omitempty"`
		AttachedTo    string           `json:"attachedTo,omitempty" yaml:"attachedTo,omitempty"`
		DataObjects   state.Parameters `json:"dataObjects,omitempty" yaml:"dataObjects,omitempty"`
		MultiInstance *MultiInstance   `json:"multiInstance,omitempty" yaml:"multiInstance,omitempty"`
		Activities    []*Activity      `json:"activities,omitempty" yaml:"activities,omitempty"`

		// computed by Definition.Init
		ParentID string   `json:"-" yaml:"-"`
		Boundary []string `json:"-" yaml:"-"`
		Incoming int      `json:"-" yaml:"-"`
	}

	// Flow is a sequence flow to Target; an empty Condition marks the default flow.
	Flow struct {
		Target    string `json:"target" yaml:"target"`
		Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	}

	// Event describes what an event activity waits for
	Event struct {
		Kind   EventKind `json:"kind" yaml:"kind"`
		Ref    string    `json:"ref,omitempty" yaml:"ref,omitempty"`
		Due    string    `json:"due,omitempty" yaml:"due,omitempty"`
		Cancel *bool     `json:"cancel,omitempty" yaml:"cancel,omitempty"`
	}

	// MultiInstance marks an activity executed once per collection element
	MultiInstance struct {
		Collection  string `json:"collection,omitempty" yaml:"collection,omitempty"`
		Cardinality string `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
		Sequential  bool   `json:"sequential,omitempty" yaml:"sequential,omitempty"`
	}
)

// IsInterrupting reports whether triggering the event cancels the activity
// (boundary) or the enclosing scope's other work (event sub-process start).
// Events are interrupting unless declared otherwise.
func (e *Event) IsInterrupting() bool {
	if e == nil || e.Cancel == nil {
		return true
	}
	return *e.Cancel
}

// IsScope reports whether executions of this activity own child executions
func (a *Activity) IsScope() bool {
	return a.Type == TypeSubProcess || a.Type == TypeEventSubProcess
}

// IsGateway reports gateway types
func (a *Activity) IsGateway() bool {
	return a.Type == TypeExclusiveGateway || a.Type == TypeParallelGateway
}

// IsWaitState reports activities where a token rests until triggered
func (a *Activity) IsWaitState() bool {
	return a.Type == TypeTask || a.Type == TypeCatchEvent
}

// IsMultiInstance reports a multi-instance body
func (a *Activity) IsMultiInstance() bool {
	return a.MultiInstance != nil
}

// NewActivity creates an activity of the given type
func NewActivity(id string, aType Type) *Activity {
	return &Activity{ID: id, Type: aType}
}

// Task creates a task activity
func Task(id string) *Activity { return NewActivity(id, TypeTask) }

// Start creates a start event
func Start(id string) *Activity { return NewActivity(id, TypeStartEvent) }

// End creates an end event
func End(id string) *Activity { return NewActivity(id, TypeEndEvent) }

// SubProcess creates a sub-process scope with the given children
func SubProcess(id string, children ...*Activity) *Activity {
	return NewActivity(id, TypeSubProcess).AddActivity(children...)
}

// EventSubProcess creates an event sub-process scope with the given children
func EventSubProcess(id string, children ...*Activity) *Activity {
	return NewActivity(id, TypeEventSubProcess).AddActivity(children...)
}

// Boundary creates a boundary event attached to the given activity
func Boundary(id, attachedTo string) *Activity {
	ret := NewActivity(id, TypeBoundaryEvent)
	ret.AttachedTo = attachedTo
	return ret
}

// CatchEvent creates an intermediate catch event
func CatchEvent(id string) *Activity { return NewActivity(id, TypeCatchEvent) }

// WithName sets the display name
func (a *Activity) WithName(name string) *Activity {
	a.Name = name
	return a
}

// WithFlow adds an unconditional sequence flow
func (a *Activity) WithFlow(targets ...string) *Activity {
	for _, target := range targets {
		a.Outgoing = append(a.Outgoing, &Flow{Target: target})
	}
	return a
}

// WithCondition adds a conditional sequence flow taken when variable is truthy
func (a *Activity) WithCondition(target, variable string) *Activity {
	a.Outgoing = append(a.Outgoing, &Flow{Target: target, Condition: variable})
	return a
}

// WithSignal sets a signal event definition
func (a *Activity) WithSignal(name string) *Activity {
	a.Event = &Event{Kind: EventSignal, Ref: name}
	return a
}

// WithMessage sets a message event definition
func (a *Activity) WithMessage(name string) *Activity {
	a.Event = &Event{Kind: EventMessage, Ref: name}
	return a
}

// WithTimer sets a timer event definition
func (a *Activity) WithTimer(due string) *Activity {
	a.Event = &Event{Kind: EventTimer, Due: due}
	return a
}

// NonInterrupting marks the event definition as non-interrupting
func (a *Activity) NonInterrupting() *Activity {
	if a.Event == nil {
		a.Event = &Event{}
	}
	cancel := false
	a.Event.Cancel = &cancel
	return a
}

// WithDataObject adds a scope data object with its default value
func (a *Activity) WithDataObject(name string, value interface{}) *Activity {
	a.DataObjects.Add(name, value)
	return a
}

// WithMultiInstance marks the activity as a multi-instance body
func (a *Activity) WithMultiInstance(collection string) *Activity {
	a.MultiInstance = &MultiInstance{Collection: collection}
	return a
}

// AddActivity appends nested activities to a scope
func (a *Activity) AddActivity(children ...*Activity) *Activity {
	a.Activities = append(a.Activities, children...)
	return a
}

// Clone returns a deep copy of the activity and its nested activities
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	ret := *a
	ret.Outgoing = make([]*Flow, 0, len(a.Outgoing))
	for _, flow := range a.Outgoing {
		cp := *flow
		ret.Outgoing = append(ret.Outgoing, &cp)
	}
	if a.Event != nil {
		event := *a.Event
		ret.Event = &event
	}
	if a.MultiInstance != nil {
		mi := *a.MultiInstance
		ret.MultiInstance = &mi
	}
	ret.DataObjects = a.DataObjects.Clone()
	ret.Boundary = append([]string(nil), a.Boundary...)
	ret.Activities = make([]*Activity, 0, len(a.Activities))
	for _, child := range a.Activities {
		ret.Activities = append(ret.Activities, child.Clone())
	}
	return &ret
}
