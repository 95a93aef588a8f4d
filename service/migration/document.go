package migration

import (
	"fmt"

	"github.com/viant/shift/model/state"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a request
type Document struct {
	Process   string           `yaml:"process"`
	Moves     []Directive      `yaml:"moves,omitempty"`
	Enable    []string         `yaml:"enable,omitempty"`
	Variables state.Parameters `yaml:"variables,omitempty"`
	Locals    []LocalVariable  `yaml:"locals,omitempty"`
}

// DecodeDocument decodes a YAML request document
func DecodeDocument(data []byte) (*Document, error) {
	ret := &Document{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode migration document: %w", err)
	}
	return ret, nil
}

// Request builds the request described by the document. A move without kind
// is an execution move when it names an execution, otherwise an activity move.
func (d *Document) Request(applier Applier) (*Request, error) {
	ret := NewRequest(d.Process, applier)
	for i, move := range d.Moves {
		kind := move.Kind
		if kind == "" {
			kind = KindMoveActivity
			if move.ExecutionID != "" {
				kind = KindMoveExecution
			}
		}
		switch kind {
		case KindMoveActivity:
			ret = ret.MoveActivityToActivity(move.SourceActivityID, move.TargetActivityID)
		case KindMoveExecution:
			ret = ret.MoveExecutionToActivity(move.ExecutionID, move.TargetActivityID)
		case KindMoveToParentActivity:
			ret = ret.MoveActivityToParentActivity(move.SourceActivityID, move.TargetActivityID)
		case KindEnableStartEvent:
			ret = ret.EnableEventSubProcessStartEvent(move.TargetActivityID)
		default:
			return nil, &ValidationError{Directive: i, Reason: fmt.Sprintf("unsupported directive %q", move.Kind)}
		}
	}
	for _, start := range d.Enable {
		ret = ret.EnableEventSubProcessStartEvent(start)
	}
	for _, variable := range d.Variables {
		ret = ret.ProcessVariable(variable.Name, variable.Value)
	}
	for _, local := range d.Locals {
		ret = ret.LocalVariable(local.ScopeActivityID, local.Name, local.Value)
	}
	return ret, nil
}
