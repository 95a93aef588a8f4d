package migration

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/tracing"
	"go.uber.org/multierr"
)

// Planner resolves requests into plans without mutating the process
type Planner struct{}

// NewPlanner creates a planner
func NewPlanner() *Planner {
	return &Planner{}
}

type (
	move struct {
		directive int
		target    *graph.Activity
		sources   []*execution.Execution
	}

	// planning holds the state of resolving a single request
	planning struct {
		request    *Request
		process    *execution.Process
		definition *graph.Definition
		err        error
		claimed    map[string]int
		sources    []*execution.Execution
		keep       map[string]bool
		candidates []*execution.Execution
		cancelled  map[string]bool
		plan       *Plan
	}
)

// Plan resolves the request against the process and its definition. Every
// rejection is reported; a non-nil error means the plan must not be applied.
func (p *Planner) Plan(ctx context.Context, request *Request, process *execution.Process, definition *graph.Definition) (plan *Plan, err error) {
	_, span := tracing.StartSpan(ctx, "shift.plan", tracing.KindInternal)
	span.WithAttributes(map[string]string{"process.id": process.ID}).WithInt("directives", len(request.directives))
	defer func() { tracing.EndSpan(span, err) }()

	if process.IsCompleted() {
		return nil, &ValidationError{Directive: -1, Reason: fmt.Sprintf("process %v is completed", process.ID)}
	}
	if request.processID != "" && request.processID != process.ID {
		return nil, &ValidationError{Directive: -1, Reason: fmt.Sprintf("request targets process %v, not %v", request.processID, process.ID)}
	}
	if len(request.directives) == 0 && len(request.variables) == 0 && len(request.locals) == 0 {
		return nil, &ValidationError{Directive: -1, Reason: "request is empty"}
	}
	state := &planning{
		request:    request,
		process:    process,
		definition: definition,
		claimed:    map[string]int{},
		keep:       map[string]bool{},
		cancelled:  map[string]bool{},
		plan: &Plan{
			ProcessID:    process.ID,
			DefinitionID: definition.ID,
			Revision:     process.Revision,
			Variables:    request.Variables(),
		},
	}
	var moves []*move
	for i, directive := range request.directives {
		if directive.Kind == KindEnableStartEvent {
			continue
		}
		if resolved := state.resolve(i, directive); resolved != nil {
			moves = append(moves, resolved)
		}
	}
	state.checkNesting()
	if state.err != nil {
		return nil, state.err
	}
	for _, item := range moves {
		state.planMove(item)
	}
	state.planCancels()
	state.assignLocals()
	for i, directive := range request.directives {
		if directive.Kind == KindEnableStartEvent {
			state.planEnable(i, directive)
		}
	}
	if state.err != nil {
		return nil, state.err
	}
	return state.plan, nil
}

func (s *planning) fail(err error) {
	s.err = multierr.Append(s.err, err)
}

func (s *planning) activity(id, role string) *graph.Activity {
	ret := s.definition.Activity(id)
	if ret == nil {
		s.fail(&UnknownActivityError{ActivityID: id, Role: role})
	}
	return ret
}

func (s *planning) resolve(index int, directive Directive) *move {
	target := s.activity(directive.TargetActivityID, "target")
	var sources []*execution.Execution
	switch directive.Kind {
	case KindMoveActivity, KindMoveToParentActivity:
		source := s.activity(directive.SourceActivityID, "source")
		if source == nil {
			return nil
		}
		if directive.Kind == KindMoveToParentActivity && target != nil && !s.enclosesSource(index, source, target) {
			return nil
		}
		sources = s.process.ExecutionsAt(source.ID)
		if len(sources) == 0 {
			s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("no execution is positioned at %v", source.ID)})
			return nil
		}
	case KindMoveExecution:
		source := s.process.Execution(directive.ExecutionID)
		if source == nil {
			s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("execution %v not found", directive.ExecutionID)})
			return nil
		}
		if source.IsRoot() {
			s.fail(&ValidationError{Directive: index, Reason: "the root execution cannot be moved"})
			return nil
		}
		sources = []*execution.Execution{source}
	default:
		s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("unsupported directive %q", directive.Kind)})
		return nil
	}
	if target == nil {
		return nil
	}
	if err := validateTarget(target); err != nil {
		s.fail(err)
		return nil
	}
	for _, source := range sources {
		if previous, ok := s.claimed[source.ID]; ok {
			s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("execution %v is already moved by directive %d", source.ID, previous)})
			return nil
		}
	}
	for _, source := range sources {
		s.claimed[source.ID] = index
		s.sources = append(s.sources, source)
		s.cancelled[source.ID] = true
	}
	return &move{directive: index, target: target, sources: sources}
}

// enclosesSource checks that target is declared in a scope strictly enclosing the source's scope
func (s *planning) enclosesSource(index int, source, target *graph.Activity) bool {
	chain := s.definition.ScopeChain(source.ID)
	if len(chain) == 0 {
		s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("%v is not nested in a sub-process", source.ID)})
		return false
	}
	if target.ParentID == graph.RootScope {
		return true
	}
	for _, scope := range chain[:len(chain)-1] {
		if scope.ID == target.ParentID {
			return true
		}
	}
	s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("%v is not declared in a scope enclosing %v", target.ID, source.ID)})
	return false
}

// checkNesting rejects sources located inside the subtree of another source
func (s *planning) checkNesting() {
	for _, source := range s.sources {
		for _, ancestor := range s.process.Ancestors(source.ID) {
			if owner, ok := s.claimed[ancestor.ID]; ok {
				s.fail(&ValidationError{Directive: s.claimed[source.ID], Reason: fmt.Sprintf("execution %v is inside %v already moved by directive %d", source.ID, ancestor.ID, owner)})
				break
			}
		}
	}
}

func validateTarget(target *graph.Activity) error {
	reason := ""
	switch target.Type {
	case graph.TypeStartEvent:
		reason = "start events are entered through their scope"
	case graph.TypeEndEvent:
		reason = "end events cannot hold a token"
	case graph.TypeBoundaryEvent:
		reason = "boundary events are triggered by their host activity"
	case graph.TypeExclusiveGateway, graph.TypeParallelGateway:
		reason = "gateways cannot hold a token"
	case graph.TypeSubProcess, graph.TypeEventSubProcess:
		reason = "scopes are entered through an activity they contain"
	}
	if reason == "" && target.IsMultiInstance() {
		reason = "multi-instance body requires an instance count"
	}
	if reason != "" {
		return &InvalidScopeTransitionError{ActivityID: target.ID, Reason: reason}
	}
	return nil
}

// commonAncestor returns the nearest ancestor execution of source that is
// the root or an instance of a scope enclosing the target
func (s *planning) commonAncestor(source *execution.Execution, chain map[string]bool) (*execution.Execution, []*execution.Execution) {
	var between []*execution.Execution
	for _, ancestor := range s.process.Ancestors(source.ID) {
		if ancestor.IsRoot() || (ancestor.IsScope && chain[ancestor.ActivityID]) {
			return ancestor, between
		}
		between = append(between, ancestor)
	}
	return s.process.Root(), between
}

func (s *planning) planMove(item *move) {
	chain := s.definition.ScopeChain(item.target.ID)
	inChain := make(map[string]bool, len(chain))
	for _, scope := range chain {
		inChain[scope.ID] = true
	}
	var ancestors []*execution.Execution
	for _, source := range item.sources {
		common, between := s.commonAncestor(source, inChain)
		s.keep[common.ID] = true
		for _, candidate := range between {
			s.addCandidate(candidate)
		}
		if !containsExecution(ancestors, common) {
			ancestors = append(ancestors, common)
		}
	}
	for _, common := range ancestors {
		s.planCreate(item, chain, common)
	}
}

func (s *planning) addCandidate(candidate *execution.Execution) {
	if !containsExecution(s.candidates, candidate) {
		s.candidates = append(s.candidates, candidate)
	}
}

// planCreate lays out the scopes below common leading to the target. Scopes
// already active and kept are entered instead of created; identical scope
// creations of different directives are merged.
func (s *planning) planCreate(item *move, chain []*graph.Activity, common *execution.Execution) {
	start := 0
	if !common.IsRoot() {
		for i, scope := range chain {
			if scope.ID == common.ActivityID {
				start = i + 1
				break
			}
		}
	}
	existing := common
	var parent *Create
	for _, scope := range chain[start:] {
		if parent == nil {
			if active := s.activeScope(existing, scope.ID); active != nil {
				s.keep[active.ID] = true
				existing = active
				continue
			}
		}
		if scope.IsMultiInstance() {
			s.fail(&InvalidScopeTransitionError{ActivityID: scope.ID, Reason: "multi-instance body requires an instance count"})
			return
		}
		parent = s.scopeCreate(parent, existing, scope.ID)
	}
	leaf := &Create{ActivityID: item.target.ID}
	if parent == nil {
		leaf.ParentExecutionID = existing.ID
		s.plan.Creates = append(s.plan.Creates, leaf)
		return
	}
	parent.Children = append(parent.Children, leaf)
}

func (s *planning) activeScope(parent *execution.Execution, activityID string) *execution.Execution {
	for _, child := range s.process.Children(parent.ID) {
		if child.IsScope && child.ActivityID == activityID && !s.cancelled[child.ID] {
			return child
		}
	}
	return nil
}

func (s *planning) scopeCreate(parent *Create, existing *execution.Execution, activityID string) *Create {
	siblings := s.plan.Creates
	if parent != nil {
		siblings = parent.Children
	}
	for _, sibling := range siblings {
		if sibling.Scope && sibling.ActivityID == activityID && (parent != nil || sibling.ParentExecutionID == existing.ID) {
			return sibling
		}
	}
	ret := &Create{ActivityID: activityID, Scope: true}
	if parent == nil {
		ret.ParentExecutionID = existing.ID
		s.plan.Creates = append(s.plan.Creates, ret)
		return ret
	}
	parent.Children = append(parent.Children, ret)
	return ret
}

// planCancels removes sources and every ancestor between a source and its
// common ancestor whose children are all removed, deepest first
func (s *planning) planCancels() {
	depth := func(e *execution.Execution) int { return s.process.Depth(e.ID) }
	candidates := append([]*execution.Execution(nil), s.candidates...)
	sort.SliceStable(candidates, func(i, j int) bool { return depth(candidates[i]) > depth(candidates[j]) })
	removed := append([]*execution.Execution(nil), s.sources...)
	for _, candidate := range candidates {
		if s.keep[candidate.ID] {
			continue
		}
		all := true
		for _, child := range s.process.Children(candidate.ID) {
			if !s.cancelled[child.ID] {
				all = false
				break
			}
		}
		if all {
			s.cancelled[candidate.ID] = true
			removed = append(removed, candidate)
		}
	}
	sort.SliceStable(removed, func(i, j int) bool { return depth(removed[i]) > depth(removed[j]) })
	for _, item := range removed {
		_, source := s.claimed[item.ID]
		s.plan.Cancels = append(s.plan.Cancels, &Cancel{
			ExecutionID: item.ID,
			ActivityID:  item.ActivityID,
			Depth:       depth(item),
			Source:      source,
		})
	}
}

func (s *planning) assignLocals() {
	for _, local := range s.request.locals {
		var matched []*Create
		for _, create := range s.plan.Creates {
			matched = create.find(local.ScopeActivityID, matched)
		}
		if len(matched) == 0 {
			s.fail(&UnresolvedScopeError{ScopeActivityID: local.ScopeActivityID, Name: local.Name})
			continue
		}
		for _, create := range matched {
			create.Locals.Set(local.Name, local.Value)
		}
	}
}

func (s *planning) planEnable(index int, directive Directive) {
	start := s.activity(directive.TargetActivityID, "start event")
	if start == nil {
		return
	}
	host := s.definition.Activity(start.ParentID)
	if start.Type != graph.TypeStartEvent || start.Event == nil || host == nil || host.Type != graph.TypeEventSubProcess {
		s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("%v is not an event sub-process start event", start.ID)})
		return
	}
	if start.Event.Kind != graph.EventSignal && start.Event.Kind != graph.EventMessage {
		s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("%v is a %v start event; only signal and message starts can be enabled", start.ID, start.Event.Kind)})
		return
	}
	var owners []*execution.Execution
	if host.ParentID == graph.RootScope {
		owners = append(owners, s.process.Root())
	} else {
		for _, candidate := range s.process.ExecutionsAt(host.ParentID) {
			if candidate.IsScope && !s.cancelled[candidate.ID] {
				owners = append(owners, candidate)
			}
		}
	}
	if len(owners) == 0 {
		s.fail(&ValidationError{Directive: index, Reason: fmt.Sprintf("scope %v of %v is not active", host.ParentID, start.ID)})
		return
	}
	for _, owner := range owners {
		s.plan.Enables = append(s.plan.Enables, &Enable{ExecutionID: owner.ID, ScopeActivityID: owner.ActivityID, StartActivityID: start.ID})
	}
}

func containsExecution(list []*execution.Execution, candidate *execution.Execution) bool {
	for _, item := range list {
		if item.ID == candidate.ID {
			return true
		}
	}
	return false
}
