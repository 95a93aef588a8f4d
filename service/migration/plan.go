package migration

import (
	"fmt"
	"strings"

	"github.com/viant/shift/model/state"
)

type (
	// Plan is an ordered set of mutations resolved against one revision of a process
	Plan struct {
		ProcessID    string           `json:"processId"`
		DefinitionID string           `json:"definitionId"`
		Revision     int              `json:"revision"`
		Variables    state.Parameters `json:"variables,omitempty"`
		Cancels      []*Cancel        `json:"cancels,omitempty"`
		Creates      []*Create        `json:"creates,omitempty"`
		Enables      []*Enable        `json:"enables,omitempty"`
	}

	// Cancel removes an execution with its subtree; cancels are ordered deepest first
	Cancel struct {
		ExecutionID string `json:"executionId"`
		ActivityID  string `json:"activityId"`
		Depth       int    `json:"depth"`
		Source      bool   `json:"source,omitempty"`
	}

	// Create instantiates an activity. Top level creates attach to an existing
	// execution; nested creates attach to the execution created by their parent.
	Create struct {
		ParentExecutionID string           `json:"parentExecutionId,omitempty"`
		ActivityID        string           `json:"activityId"`
		Scope             bool             `json:"scope,omitempty"`
		Locals            state.Parameters `json:"locals,omitempty"`
		Children          []*Create        `json:"children,omitempty"`
	}

	// Enable registers an event sub-process start trigger on an existing scope execution
	Enable struct {
		ExecutionID     string `json:"executionId"`
		ScopeActivityID string `json:"scopeActivityId,omitempty"`
		StartActivityID string `json:"startActivityId"`
	}
)

// IsEmpty reports a plan without any step
func (p *Plan) IsEmpty() bool {
	return len(p.Variables) == 0 && len(p.Cancels) == 0 && len(p.Creates) == 0 && len(p.Enables) == 0
}

// Describe renders the plan steps in application order
func (p *Plan) Describe() string {
	builder := &strings.Builder{}
	for _, variable := range p.Variables {
		fmt.Fprintf(builder, "set $%v = %v\n", variable.Name, variable.Value)
	}
	for _, cancel := range p.Cancels {
		fmt.Fprintf(builder, "cancel %v [%v]\n", cancel.ActivityID, cancel.ExecutionID)
	}
	for _, create := range p.Creates {
		describeCreate(builder, create, 0)
	}
	for _, enable := range p.Enables {
		fmt.Fprintf(builder, "enable %v [%v]\n", enable.StartActivityID, enable.ExecutionID)
	}
	return builder.String()
}

func describeCreate(builder *strings.Builder, create *Create, depth int) {
	builder.WriteString(strings.Repeat("  ", depth))
	builder.WriteString("create ")
	builder.WriteString(create.ActivityID)
	if create.ParentExecutionID != "" {
		fmt.Fprintf(builder, " under [%v]", create.ParentExecutionID)
	}
	for _, local := range create.Locals {
		fmt.Fprintf(builder, " $%v=%v", local.Name, local.Value)
	}
	builder.WriteString("\n")
	for _, child := range create.Children {
		describeCreate(builder, child, depth+1)
	}
}

func (c *Create) find(activityID string, into []*Create) []*Create {
	if c.ActivityID == activityID {
		into = append(into, c)
	}
	for _, child := range c.Children {
		into = child.find(activityID, into)
	}
	return into
}

// Count returns the number of executions the create tree instantiates
func (c *Create) Count() int {
	ret := 1
	for _, child := range c.Children {
		ret += child.Count()
	}
	return ret
}
