package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
	"go.uber.org/multierr"
)

func TestPlanner_Rejections(t *testing.T) {
	var (
		unknown    *UnknownActivityError
		transition *InvalidScopeTransitionError
		validation *ValidationError
		unresolved *UnresolvedScopeError
	)
	testCases := []struct {
		name     string
		enter    []string
		build    func(h *harness, entered []*execution.Execution) *Request
		expected interface{}
	}{
		{name: "unknown target", enter: []string{"firstTask"}, expected: &unknown, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "missing")
		}},
		{name: "unknown source", enter: []string{"firstTask"}, expected: &unknown, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("missing", "secondTask")
		}},
		{name: "gateway target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "fork")
		}},
		{name: "end event target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "end")
		}},
		{name: "start event target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "subStart")
		}},
		{name: "boundary event target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "subTimer")
		}},
		{name: "scope target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "subProcess")
		}},
		{name: "multi-instance target", enter: []string{"firstTask"}, expected: &transition, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "multiTask")
		}},
		{name: "no execution at source", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("secondTask", "firstTask")
		}},
		{name: "execution moved twice", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, entered []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "secondTask").MoveExecutionToActivity(entered[0].ID, "taskAfter")
		}},
		{name: "root execution", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveExecutionToActivity(h.process().Root().ID, "secondTask")
		}},
		{name: "unknown execution", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveExecutionToActivity("missing", "secondTask")
		}},
		{name: "source inside another source", enter: []string{"subTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("subProcess", "taskAfter").MoveActivityToActivity("subTask", "firstTask")
		}},
		{name: "local variable outside create path", enter: []string{"firstTask"}, expected: &unresolved, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToActivity("firstTask", "secondTask").LocalVariable("subProcess", "name", "Mary")
		}},
		{name: "parent move from root level", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToParentActivity("firstTask", "secondTask")
		}},
		{name: "parent move within the same scope", enter: []string{"nestedSubTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().MoveActivityToParentActivity("nestedSubTask", "nestedSubTask")
		}},
		{name: "enable non start event", expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().EnableEventSubProcessStartEvent("firstTask")
		}},
		{name: "empty request", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request()
		}},
		{name: "enable unknown start event", expected: &unknown, build: func(h *harness, _ []*execution.Execution) *Request {
			return h.request().EnableEventSubProcessStartEvent("missing")
		}},
		{name: "completed process", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			h.process().Complete()
			return h.request().MoveActivityToActivity("firstTask", "secondTask")
		}},
		{name: "request for another process", enter: []string{"firstTask"}, expected: &validation, build: func(h *harness, _ []*execution.Execution) *Request {
			return NewRequest("other", h).MoveActivityToActivity("firstTask", "secondTask")
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			var entered []*execution.Execution
			for _, activityID := range tc.enter {
				entered = append(entered, h.enter(activityID))
			}
			request := tc.build(h, entered)
			before := h.process().Render()
			jobs := h.scheduler.Len()
			_, err := request.Apply(h.ctx)
			require.Error(t, err)
			assert.True(t, errors.As(err, tc.expected), "unexpected error: %v", err)
			assert.Equal(t, before, h.process().Render())
			assert.Empty(t, h.recorder.Summary())
			assert.Equal(t, jobs, h.scheduler.Len())
		})
	}
}

func TestPlanner_EnableTimerStartEvent(t *testing.T) {
	definition := graph.New("timed",
		graph.Start("start").WithFlow("task"),
		graph.Task("task").WithFlow("end"),
		graph.End("end"),
		graph.EventSubProcess("onTimer",
			graph.Start("onTimerStart").WithTimer("PT1H").WithFlow("timerTask"),
			graph.Task("timerTask").WithFlow("timerEnd"),
			graph.End("timerEnd"),
		),
	)
	require.NoError(t, definition.Init())
	process := execution.New("p1", definition.ID)

	_, err := NewPlanner().Plan(context.Background(), NewRequest("p1", nil).EnableEventSubProcessStartEvent("onTimerStart"), process, definition)
	var validation *ValidationError
	require.True(t, errors.As(err, &validation), "unexpected error: %v", err)
	assert.Equal(t, 0, validation.Directive)
	assert.Contains(t, validation.Reason, "timer")
}

func TestPlanner_CollectsEveryRejection(t *testing.T) {
	h := newHarness(t)
	h.enter("firstTask")
	h.enter("parallelTask")
	_, err := h.request().
		MoveActivityToActivity("firstTask", "missing").
		MoveActivityToActivity("parallelTask", "fork").
		Apply(h.ctx)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	var unknown *UnknownActivityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.ActivityID)
	var transition *InvalidScopeTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, "fork", transition.ActivityID)
}

func TestPlanner_Plan(t *testing.T) {
	h := newHarness(t)
	h.enter("nestedSubTask")
	request := h.request().
		ProcessVariable("approved", true).
		MoveActivityToActivity("nestedSubTask", "firstTask").
		LocalVariable("firstTask", "note", "moved")
	plan, err := h.planner.Plan(h.ctx, request, h.process(), h.inst.Definition)
	require.NoError(t, err)
	assert.False(t, plan.IsEmpty())
	assert.Equal(t, h.process().Revision, plan.Revision)

	var cancelled []string
	var depths []int
	for _, cancel := range plan.Cancels {
		cancelled = append(cancelled, cancel.ActivityID)
		depths = append(depths, cancel.Depth)
	}
	assert.Equal(t, []string{"nestedSubTask", "nestedSubProcess", "subProcess"}, cancelled)
	assert.Equal(t, []int{3, 2, 1}, depths)
	assert.True(t, plan.Cancels[0].Source)
	assert.False(t, plan.Cancels[1].Source)

	require.Len(t, plan.Creates, 1)
	assert.Equal(t, h.process().Root().ID, plan.Creates[0].ParentExecutionID)
	assert.Equal(t, 1, plan.Creates[0].Count())
	value, ok := plan.Creates[0].Locals.Get("note")
	require.True(t, ok)
	assert.Equal(t, "moved", value.Value)

	description := plan.Describe()
	assert.Contains(t, description, "set $approved = true")
	assert.Contains(t, description, "cancel nestedSubProcess")
	assert.Contains(t, description, "create firstTask under")
	assert.Len(t, h.process().Executions, 4)
}
