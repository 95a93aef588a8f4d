package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/model/state"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/lifecycle"
	"github.com/viant/shift/service/scheduler/memory"
	"github.com/viant/shift/service/subscription"
)

type fixture struct {
	ctx       context.Context
	service   *Service
	recorder  *event.Recorder
	scheduler *memory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Cleanup(clock.Freeze(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)))
	recorder := event.NewRecorder()
	sched := memory.New()
	operator := lifecycle.New(event.NewPublisher[event.Lifecycle](nil, recorder.Listen), subscription.New(), sched)
	return &fixture{ctx: context.Background(), service: New(operator, nil), recorder: recorder, scheduler: sched}
}

func (f *fixture) start(t *testing.T, definition *graph.Definition, variables state.Parameters) *lifecycle.Instance {
	require.NoError(t, definition.Init())
	process, err := f.service.Start(f.ctx, definition, "", variables)
	require.NoError(t, err)
	return &lifecycle.Instance{Process: process, Definition: definition}
}

func (f *fixture) complete(t *testing.T, inst *lifecycle.Instance, activityID string) {
	executions := inst.Process.ExecutionsAt(activityID)
	require.Len(t, executions, 1, activityID)
	require.NoError(t, f.service.Complete(f.ctx, inst, executions[0].ID, nil))
	require.NoError(t, inst.Process.Validate(inst.Definition))
}

func active(process *execution.Process) []string {
	var ret []string
	for _, candidate := range process.Executions {
		if !candidate.IsRoot() {
			ret = append(ret, candidate.ActivityID)
		}
	}
	return ret
}

func TestService_TwoTasks(t *testing.T) {
	f := newFixture(t)
	definition := graph.New("twoTasks",
		graph.Start("start").WithFlow("firstTask"),
		graph.Task("firstTask").WithFlow("secondTask"),
		graph.Task("secondTask").WithFlow("end"),
		graph.End("end"),
	).WithDataObject("priority", 3)
	var variables state.Parameters
	variables.Add("name", "John")
	inst := f.start(t, definition, variables)

	assert.Equal(t, []string{
		"process-started()",
		"variable-created(name=John)",
		"variable-created(priority=3)",
		"activity-started(firstTask)",
	}, f.recorder.Summary())
	assert.Equal(t, []string{"firstTask"}, active(inst.Process))

	f.recorder.Clear()
	f.complete(t, inst, "firstTask")
	assert.Equal(t, []string{"activity-completed(firstTask)", "activity-started(secondTask)"}, f.recorder.Summary())

	f.complete(t, inst, "secondTask")
	assert.True(t, inst.Process.IsCompleted())
	assert.Empty(t, inst.Process.Executions)
	assert.NotNil(t, inst.Process.FinishedAt)

	err := f.service.Complete(f.ctx, inst, "any", nil)
	assert.True(t, errors.Is(err, ErrProcessCompleted))
}

func TestService_Gateways(t *testing.T) {
	definition := func() *graph.Definition {
		return graph.New("gateways",
			graph.Start("start").WithFlow("decide"),
			graph.NewActivity("decide", graph.TypeExclusiveGateway).WithCondition("review", "needsReview").WithFlow("fork"),
			graph.Task("review").WithFlow("end"),
			graph.NewActivity("fork", graph.TypeParallelGateway).WithFlow("left", "right"),
			graph.Task("left").WithFlow("join"),
			graph.Task("right").WithFlow("join"),
			graph.NewActivity("join", graph.TypeParallelGateway).WithFlow("final"),
			graph.Task("final").WithFlow("end"),
			graph.End("end"),
		)
	}

	t.Run("conditional flow", func(t *testing.T) {
		f := newFixture(t)
		var variables state.Parameters
		variables.Add("needsReview", true)
		inst := f.start(t, definition(), variables)
		assert.Equal(t, []string{"review"}, active(inst.Process))
	})

	t.Run("default flow, fork and join", func(t *testing.T) {
		f := newFixture(t)
		inst := f.start(t, definition(), nil)
		assert.ElementsMatch(t, []string{"left", "right"}, active(inst.Process))
		for _, candidate := range inst.Process.Executions {
			if !candidate.IsRoot() {
				assert.True(t, candidate.IsConcurrent)
			}
		}
		f.complete(t, inst, "left")
		assert.ElementsMatch(t, []string{"right", "join"}, active(inst.Process))
		assert.Equal(t, execution.StateWaiting, inst.Process.ExecutionsAt("join")[0].State)
		f.complete(t, inst, "right")
		assert.Equal(t, []string{"final"}, active(inst.Process))
		assert.False(t, inst.Process.ExecutionsAt("final")[0].IsConcurrent)
	})

	t.Run("no flow", func(t *testing.T) {
		f := newFixture(t)
		broken := graph.New("broken",
			graph.Start("start").WithFlow("decide"),
			graph.NewActivity("decide", graph.TypeExclusiveGateway).WithCondition("end", "never"),
			graph.End("end"),
		)
		require.NoError(t, broken.Init())
		_, err := f.service.Start(f.ctx, broken, "", nil)
		assert.True(t, errors.Is(err, ErrNoFlow))
	})
}

func TestService_SubProcessWithBoundaryTimer(t *testing.T) {
	definition := func() *graph.Definition {
		return graph.New("boundary",
			graph.Start("start").WithFlow("subProcess"),
			graph.SubProcess("subProcess",
				graph.Start("subStart").WithFlow("subTask"),
				graph.Task("subTask").WithFlow("subEnd"),
				graph.End("subEnd"),
			).WithDataObject("name", "John").WithFlow("taskAfter"),
			graph.Boundary("subTimer", "subProcess").WithTimer("PT5M").WithFlow("escalated"),
			graph.Task("taskAfter").WithFlow("end"),
			graph.Task("escalated").WithFlow("end"),
			graph.End("end"),
		)
	}

	t.Run("timer fires", func(t *testing.T) {
		f := newFixture(t)
		inst := f.start(t, definition(), nil)
		assert.ElementsMatch(t, []string{"subProcess", "subTask"}, active(inst.Process))
		due := f.scheduler.Due(clock.Now().Add(5 * time.Minute))
		require.Len(t, due, 1)

		f.recorder.Clear()
		require.NoError(t, f.service.FireJob(f.ctx, inst, due[0].ID))
		assert.Equal(t, []string{
			"timer-fired(subTimer)",
			"activity-cancelled(subTask)",
			"activity-cancelled(subProcess)",
			"activity-started(escalated)",
		}, f.recorder.Summary())
		assert.Equal(t, []string{"escalated"}, active(inst.Process))
		require.NoError(t, inst.Process.Validate(inst.Definition))
	})

	t.Run("leaving cancels the timer", func(t *testing.T) {
		f := newFixture(t)
		inst := f.start(t, definition(), nil)
		jobID := inst.Process.Jobs[0].ID
		f.recorder.Clear()
		f.complete(t, inst, "subTask")
		assert.Equal(t, []string{
			"activity-completed(subTask)",
			"job-cancelled(subTimer)",
			"activity-completed(subProcess)",
			"activity-started(taskAfter)",
		}, f.recorder.Summary())
		assert.Equal(t, 0, f.scheduler.Len())

		before := inst.Process.Render()
		err := f.service.FireJob(f.ctx, inst, jobID)
		assert.True(t, errors.Is(err, ErrJobNotFound))
		assert.Equal(t, before, inst.Process.Render())
	})
}

func TestService_Events(t *testing.T) {
	definition := func() *graph.Definition {
		return graph.New("events",
			graph.Start("start").WithFlow("work"),
			graph.Task("work").WithFlow("waitMessage"),
			graph.Boundary("notify", "work").WithSignal("ping").NonInterrupting().WithFlow("notified"),
			graph.Task("notified").WithFlow("notifiedEnd"),
			graph.End("notifiedEnd"),
			graph.CatchEvent("waitMessage").WithMessage("resume").WithFlow("end"),
			graph.End("end"),
			graph.EventSubProcess("onAbort",
				graph.Start("abortStart").WithSignal("abort").WithFlow("cleanup"),
				graph.Task("cleanup").WithFlow("abortEnd"),
				graph.End("abortEnd"),
			),
		)
	}

	t.Run("non-interrupting boundary and catch event", func(t *testing.T) {
		f := newFixture(t)
		inst := f.start(t, definition(), nil)
		triggered, err := f.service.Signal(f.ctx, inst, "ping")
		require.NoError(t, err)
		assert.Equal(t, 1, triggered)
		assert.ElementsMatch(t, []string{"work", "notified"}, active(inst.Process))
		assert.Len(t, inst.Process.FindSubscriptions(graph.EventSignal, "ping"), 1)

		f.complete(t, inst, "notified")
		f.complete(t, inst, "work")
		assert.Equal(t, []string{"waitMessage"}, active(inst.Process))
		assert.Empty(t, inst.Process.FindSubscriptions(graph.EventSignal, "ping"))

		triggered, err = f.service.Message(f.ctx, inst, "unknown")
		require.NoError(t, err)
		assert.Equal(t, 0, triggered)
		triggered, err = f.service.Message(f.ctx, inst, "resume")
		require.NoError(t, err)
		assert.Equal(t, 1, triggered)
		assert.True(t, inst.Process.IsCompleted())
	})

	t.Run("interrupting event sub-process", func(t *testing.T) {
		f := newFixture(t)
		inst := f.start(t, definition(), nil)
		f.recorder.Clear()
		triggered, err := f.service.Signal(f.ctx, inst, "abort")
		require.NoError(t, err)
		assert.Equal(t, 1, triggered)
		assert.Equal(t, []string{
			"subscription-cancelled(notify)",
			"activity-cancelled(work)",
			"activity-started(onAbort)",
			"activity-started(cleanup)",
		}, f.recorder.Summary())
		assert.Equal(t, []string{"onAbort", "cleanup"}, active(inst.Process))
		require.NoError(t, inst.Process.Validate(inst.Definition))

		f.complete(t, inst, "cleanup")
		assert.True(t, inst.Process.IsCompleted())
	})
}

func TestService_Errors(t *testing.T) {
	f := newFixture(t)
	definition := graph.New("loop",
		graph.Start("start").WithFlow("a"),
		graph.NewActivity("a", graph.TypeExclusiveGateway).WithFlow("b"),
		graph.NewActivity("b", graph.TypeExclusiveGateway).WithFlow("a"),
	)
	require.NoError(t, definition.Init())
	_, err := f.service.Start(f.ctx, definition, "", nil)
	assert.True(t, errors.Is(err, ErrStepLimit))

	inst := f.start(t, graph.New("wait",
		graph.Start("start").WithFlow("catch"),
		graph.CatchEvent("catch").WithSignal("go").WithFlow("end"),
		graph.End("end"),
	), nil)
	catch := inst.Process.ExecutionsAt("catch")[0]
	assert.True(t, errors.Is(f.service.Complete(f.ctx, inst, catch.ID, nil), ErrNotWaiting))
	assert.True(t, errors.Is(f.service.Complete(f.ctx, inst, "missing", nil), ErrExecutionNotFound))
	assert.True(t, errors.Is(f.service.FireJob(f.ctx, inst, "missing"), ErrJobNotFound))
}
