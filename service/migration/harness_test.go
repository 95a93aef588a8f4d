package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/lifecycle"
	"github.com/viant/shift/service/scheduler"
	"github.com/viant/shift/service/scheduler/memory"
	"github.com/viant/shift/service/subscription"
)

func migrationDefinition() *graph.Definition {
	return graph.New("migration",
		graph.Start("start").WithFlow("fork"),
		graph.NewActivity("fork", graph.TypeParallelGateway).WithFlow("firstTask", "parallelTask"),
		graph.Task("firstTask").WithFlow("secondTask"),
		graph.Task("secondTask").WithFlow("join"),
		graph.Task("parallelTask").WithFlow("join"),
		graph.NewActivity("join", graph.TypeParallelGateway).WithFlow("subProcess"),
		graph.SubProcess("subProcess",
			graph.Start("subStart").WithFlow("subTask"),
			graph.Task("subTask").WithFlow("nestedSubProcess"),
			graph.SubProcess("nestedSubProcess",
				graph.Start("nestedStart").WithFlow("nestedSubTask"),
				graph.Task("nestedSubTask").WithFlow("nestedEnd"),
				graph.End("nestedEnd"),
			).WithDataObject("nestedName", "Jane").WithFlow("subEnd"),
			graph.End("subEnd"),
		).WithDataObject("name", "John").WithFlow("taskAfter"),
		graph.Boundary("subTimer", "subProcess").WithTimer("PT5M").WithFlow("taskAfter"),
		graph.Task("taskAfter").WithFlow("waitMessage"),
		graph.CatchEvent("waitMessage").WithMessage("resume").WithFlow("end"),
		graph.Task("multiTask").WithMultiInstance("items").WithFlow("end"),
		graph.EventSubProcess("onSignal",
			graph.Start("onSignalStart").WithSignal("mySignal").WithFlow("signalTask"),
			graph.Task("signalTask").WithFlow("signalEnd"),
			graph.End("signalEnd"),
		),
		graph.End("end"),
	)
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	inst      *lifecycle.Instance
	recorder  *event.Recorder
	publisher *event.Publisher[event.Lifecycle]
	scheduler *memory.Service
	operator  *lifecycle.Operator
	planner   *Planner
	executor  *Executor
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, sched scheduler.Service) *harness {
	t.Cleanup(clock.Freeze(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	definition := migrationDefinition()
	require.NoError(t, definition.Init())
	ret := &harness{
		t:         t,
		ctx:       context.Background(),
		inst:      &lifecycle.Instance{Process: execution.New("p1", definition.ID), Definition: definition},
		recorder:  event.NewRecorder(),
		scheduler: memory.New(),
		planner:   NewPlanner(),
	}
	if sched == nil {
		sched = ret.scheduler
	}
	ret.publisher = event.NewPublisher[event.Lifecycle](nil, ret.recorder.Listen)
	ret.operator = lifecycle.New(ret.publisher, subscription.New(), sched)
	ret.executor = NewExecutor(ret.operator)
	require.NoError(t, ret.operator.RegisterScope(ret.ctx, ret.inst, ret.inst.Process.Root()))
	ret.recorder.Clear()
	return ret
}

func (h *harness) process() *execution.Process {
	return h.inst.Process
}

// enter positions a new token at activityID, entering enclosing scopes that are not active yet
func (h *harness) enter(activityID string) *execution.Execution {
	definition := h.inst.Definition
	parent := h.process().Root()
	for _, scope := range definition.ScopeChain(activityID) {
		var active *execution.Execution
		for _, child := range h.process().Children(parent.ID) {
			if child.IsScope && child.ActivityID == scope.ID {
				active = child
				break
			}
		}
		if active == nil {
			var err error
			active, err = h.operator.StartScope(h.ctx, h.inst, parent, scope, nil)
			require.NoError(h.t, err)
		}
		parent = active
	}
	created, err := h.operator.StartLeaf(h.ctx, h.inst, parent, definition.Activity(activityID), nil)
	require.NoError(h.t, err)
	h.recorder.Clear()
	return created
}

func (h *harness) request() *Request {
	return NewRequest(h.process().ID, h)
}

// Apply plans and applies the request against the harness process
func (h *harness) Apply(ctx context.Context, request *Request) (*Result, error) {
	plan, err := h.planner.Plan(ctx, request, h.inst.Process, h.inst.Definition)
	if err != nil {
		return nil, err
	}
	return h.executor.Apply(ctx, h.inst, plan)
}

func (h *harness) activities() []string {
	var ret []string
	for _, candidate := range h.process().Executions {
		if !candidate.IsRoot() {
			ret = append(ret, candidate.ActivityID)
		}
	}
	return ret
}
