package graph

import (
	"fmt"

	"github.com/viant/shift/model/state"
	"go.uber.org/multierr"
)

// RootScope is the parent scope id of top level activities
const RootScope = ""

// Definition is a process definition: a tree of activities nested in scopes
type Definition struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	DataObjects state.Parameters `json:"dataObjects,omitempty" yaml:"dataObjects,omitempty"`
	Activities  []*Activity      `json:"activities" yaml:"activities"`
	index       map[string]*Activity
}

// New creates a definition
func New(id string, activities ...*Activity) *Definition {
	return &Definition{ID: id, Activities: activities}
}

// WithActivity appends top level activities
func (d *Definition) WithActivity(activities ...*Activity) *Definition {
	d.Activities = append(d.Activities, activities...)
	d.index = nil
	return d
}

// WithDataObject adds a process level data object
func (d *Definition) WithDataObject(name string, value interface{}) *Definition {
	d.DataObjects.Add(name, value)
	return d
}

// Init indexes activities, resolves scope nesting, boundary attachments and
// incoming flow counts, and validates the structure.
func (d *Definition) Init() error {
	if d.ID == "" {
		return fmt.Errorf("definition id was empty")
	}
	d.index = make(map[string]*Activity)
	var ordered []*Activity
	var err error
	var visit func(parentID string, activities []*Activity)
	visit = func(parentID string, activities []*Activity) {
		for _, activity := range activities {
			if activity == nil {
				continue
			}
			if activity.ID == "" {
				err = multierr.Append(err, fmt.Errorf("activity in scope %q has no id", parentID))
				continue
			}
			if _, ok := d.index[activity.ID]; ok {
				err = multierr.Append(err, fmt.Errorf("duplicate activity id %q", activity.ID))
				continue
			}
			activity.ParentID = parentID
			activity.Boundary = nil
			activity.Incoming = 0
			d.index[activity.ID] = activity
			ordered = append(ordered, activity)
			if activity.IsScope() {
				visit(activity.ID, activity.Activities)
			} else if len(activity.Activities) > 0 {
				err = multierr.Append(err, fmt.Errorf("activity %q of type %s cannot nest activities", activity.ID, activity.Type))
			}
		}
	}
	visit(RootScope, d.Activities)
	if err != nil {
		d.index = nil
		return err
	}
	for _, activity := range ordered {
		err = multierr.Append(err, d.link(activity))
	}
	err = multierr.Append(err, d.validateStarts(RootScope, TypeSubProcess))
	for _, activity := range ordered {
		if activity.IsScope() {
			err = multierr.Append(err, d.validateStarts(activity.ID, activity.Type))
		}
	}
	if err != nil {
		d.index = nil
	}
	return err
}

func (d *Definition) link(activity *Activity) error {
	var err error
	for _, flow := range activity.Outgoing {
		target, ok := d.index[flow.Target]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("activity %q: unknown flow target %q", activity.ID, flow.Target))
			continue
		}
		if target.ParentID != activity.ParentID {
			err = multierr.Append(err, fmt.Errorf("activity %q: flow to %q crosses a scope boundary", activity.ID, flow.Target))
			continue
		}
		target.Incoming++
	}
	switch activity.Type {
	case TypeBoundaryEvent:
		host, ok := d.index[activity.AttachedTo]
		if !ok {
			return multierr.Append(err, fmt.Errorf("boundary event %q: unknown host %q", activity.ID, activity.AttachedTo))
		}
		if host.ParentID != activity.ParentID {
			err = multierr.Append(err, fmt.Errorf("boundary event %q must share the scope of %q", activity.ID, host.ID))
		}
		host.Boundary = append(host.Boundary, activity.ID)
		if activity.Event == nil || activity.Event.Kind == "" {
			err = multierr.Append(err, fmt.Errorf("boundary event %q has no event definition", activity.ID))
		}
	case TypeCatchEvent:
		if activity.Event == nil || activity.Event.Kind == "" {
			err = multierr.Append(err, fmt.Errorf("catch event %q has no event definition", activity.ID))
		}
	}
	return err
}

func (d *Definition) validateStarts(scopeID string, scopeType Type) error {
	var plain, triggered int
	for _, child := range d.Children(scopeID) {
		if child.Type != TypeStartEvent {
			continue
		}
		if child.Event != nil && child.Event.Kind != "" {
			triggered++
		} else {
			plain++
		}
	}
	switch scopeType {
	case TypeEventSubProcess:
		if triggered != 1 || plain != 0 {
			return fmt.Errorf("event sub-process %q requires exactly one triggered start event", scopeID)
		}
	default:
		if plain != 1 || triggered != 0 {
			name := scopeID
			if name == RootScope {
				name = d.ID
			}
			return fmt.Errorf("scope %q requires exactly one plain start event", name)
		}
	}
	return nil
}

func (d *Definition) ensureIndex() {
	if d.index == nil {
		_ = d.Init()
	}
}

// Activity returns activity by id or nil
func (d *Definition) Activity(id string) *Activity {
	d.ensureIndex()
	return d.index[id]
}

// AllActivities returns the activity index
func (d *Definition) AllActivities() map[string]*Activity {
	d.ensureIndex()
	return d.index
}

// Children returns the activities declared directly in the scope
func (d *Definition) Children(scopeID string) []*Activity {
	if scopeID == RootScope {
		return d.Activities
	}
	if scope := d.Activity(scopeID); scope != nil {
		return scope.Activities
	}
	return nil
}

// ScopeChain returns the scopes enclosing the activity, outermost first. The
// process root is implied and not included.
func (d *Definition) ScopeChain(id string) []*Activity {
	activity := d.Activity(id)
	if activity == nil {
		return nil
	}
	var chain []*Activity
	for parentID := activity.ParentID; parentID != RootScope; {
		parent := d.Activity(parentID)
		if parent == nil {
			break
		}
		chain = append([]*Activity{parent}, chain...)
		parentID = parent.ParentID
	}
	return chain
}

// InitialStart returns the start event used when a scope is entered: the plain
// start of the root or a sub-process, or the triggered start of an event sub-process.
func (d *Definition) InitialStart(scopeID string) *Activity {
	for _, child := range d.Children(scopeID) {
		if child.Type == TypeStartEvent {
			return child
		}
	}
	return nil
}

// EventStarts returns the triggered start events of event sub-processes
// declared directly in the scope.
func (d *Definition) EventStarts(scopeID string) []*Activity {
	var ret []*Activity
	for _, child := range d.Children(scopeID) {
		if child.Type != TypeEventSubProcess {
			continue
		}
		if start := d.InitialStart(child.ID); start != nil && start.Event != nil {
			ret = append(ret, start)
		}
	}
	return ret
}

// BoundaryEvents returns boundary events attached to the activity
func (d *Definition) BoundaryEvents(id string) []*Activity {
	activity := d.Activity(id)
	if activity == nil {
		return nil
	}
	ret := make([]*Activity, 0, len(activity.Boundary))
	for _, boundaryID := range activity.Boundary {
		if boundary := d.Activity(boundaryID); boundary != nil {
			ret = append(ret, boundary)
		}
	}
	return ret
}

// Clone returns a deep, re-initialised copy
func (d *Definition) Clone() *Definition {
	ret := &Definition{ID: d.ID, Name: d.Name, DataObjects: d.DataObjects.Clone()}
	for _, activity := range d.Activities {
		ret.Activities = append(ret.Activities, activity.Clone())
	}
	_ = ret.Init()
	return ret
}
