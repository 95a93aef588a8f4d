package migration

import (
	"context"

	"github.com/viant/shift/model/state"
)

// Kind identifies a move directive
type Kind string

const (
	KindMoveActivity         Kind = "moveActivityToActivity"
	KindMoveExecution        Kind = "moveExecutionToActivity"
	KindMoveToParentActivity Kind = "moveActivityToParentActivity"
	KindEnableStartEvent     Kind = "enableEventSubProcessStartEvent"
)

type (
	// Directive is a single instruction of a request
	Directive struct {
		Kind             Kind   `json:"kind" yaml:"kind"`
		SourceActivityID string `json:"source,omitempty" yaml:"source,omitempty"`
		ExecutionID      string `json:"execution,omitempty" yaml:"execution,omitempty"`
		TargetActivityID string `json:"target" yaml:"target"`
	}

	// LocalVariable assigns a variable on the execution created for an activity
	LocalVariable struct {
		ScopeActivityID string      `json:"scope" yaml:"scope"`
		Name            string      `json:"name" yaml:"name"`
		Value           interface{} `json:"value" yaml:"value"`
	}

	// Applier executes a request
	Applier interface {
		Apply(ctx context.Context, request *Request) (*Result, error)
	}

	// Request is an immutable migration request; every builder call returns
	// an updated copy, so a partially built request can be shared.
	Request struct {
		processID  string
		directives []Directive
		variables  state.Parameters
		locals     []LocalVariable
		applier    Applier
	}

	// Result summarises an applied migration
	Result struct {
		ProcessID  string   `json:"processId"`
		Revision   int      `json:"revision"`
		Cancelled  []string `json:"cancelled,omitempty"`
		Created    []string `json:"created,omitempty"`
		Registered int      `json:"registered,omitempty"`
	}
)

// NewRequest creates an empty request for the process, applied by applier
func NewRequest(processID string, applier Applier) *Request {
	return &Request{processID: processID, applier: applier}
}

// ProcessID returns the process the request targets
func (r *Request) ProcessID() string { return r.processID }

// Directives returns a copy of the directives
func (r *Request) Directives() []Directive {
	return append([]Directive(nil), r.directives...)
}

// Variables returns a copy of the instance variable assignments
func (r *Request) Variables() state.Parameters {
	return r.variables.Clone()
}

// Locals returns a copy of the local variable assignments
func (r *Request) Locals() []LocalVariable {
	return append([]LocalVariable(nil), r.locals...)
}

func (r *Request) clone() *Request {
	return &Request{
		processID:  r.processID,
		directives: r.Directives(),
		variables:  r.Variables(),
		locals:     r.Locals(),
		applier:    r.applier,
	}
}

func (r *Request) with(directive Directive) *Request {
	ret := r.clone()
	ret.directives = append(ret.directives, directive)
	return ret
}

// MoveActivityToActivity moves every execution positioned at source to target
func (r *Request) MoveActivityToActivity(sourceActivityID, targetActivityID string) *Request {
	return r.with(Directive{Kind: KindMoveActivity, SourceActivityID: sourceActivityID, TargetActivityID: targetActivityID})
}

// MoveExecutionToActivity moves a single execution to target
func (r *Request) MoveExecutionToActivity(executionID, targetActivityID string) *Request {
	return r.with(Directive{Kind: KindMoveExecution, ExecutionID: executionID, TargetActivityID: targetActivityID})
}

// MoveActivityToParentActivity moves executions at source to a target
// declared in a scope enclosing the source's scope
func (r *Request) MoveActivityToParentActivity(sourceActivityID, targetActivityID string) *Request {
	return r.with(Directive{Kind: KindMoveToParentActivity, SourceActivityID: sourceActivityID, TargetActivityID: targetActivityID})
}

// EnableEventSubProcessStartEvent re-registers the trigger of an event sub-process start
func (r *Request) EnableEventSubProcessStartEvent(startActivityID string) *Request {
	return r.with(Directive{Kind: KindEnableStartEvent, TargetActivityID: startActivityID})
}

// ProcessVariable assigns an instance variable before any structural change
func (r *Request) ProcessVariable(name string, value interface{}) *Request {
	ret := r.clone()
	ret.variables.Add(name, value)
	return ret
}

// LocalVariable assigns a variable on the execution created for scopeActivityID
func (r *Request) LocalVariable(scopeActivityID, name string, value interface{}) *Request {
	ret := r.clone()
	ret.locals = append(ret.locals, LocalVariable{ScopeActivityID: scopeActivityID, Name: name, Value: value})
	return ret
}

// Apply executes the request as one unit
func (r *Request) Apply(ctx context.Context) (*Result, error) {
	if r.applier == nil {
		return nil, &ValidationError{Directive: -1, Reason: "request has no applier"}
	}
	return r.applier.Apply(ctx, r)
}
