package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/messaging/memory"
)

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewQueue[Record](memory.DefaultConfig())
	recorder := NewRecorder()
	var order []string
	publisher := NewPublisher[Lifecycle](queue, recorder.Listen)
	publisher.Subscribe(func(ctx context.Context, e *Record) error {
		order = append(order, string(e.Type()))
		return nil
	})

	leaf := &execution.Execution{ID: "e1", ProcessID: "p1", ActivityID: "firstTask"}
	require.NoError(t, publisher.Publish(ctx, ForActivity(TypeActivityStarted, leaf, graph.Task("firstTask"))))
	require.NoError(t, publisher.Publish(ctx, ForVariable(TypeVariableCreated, "p1", nil, "name", "John")))
	require.NoError(t, publisher.Publish(ctx, ForJob(TypeTimerScheduled, &execution.Job{ID: "j1", ProcessID: "p1", ExecutionID: "e1", ActivityID: "timer"})))

	assert.Equal(t, []string{"activity-started(firstTask)", "variable-created(name=John)", "timer-scheduled(timer)"}, recorder.Summary())
	assert.Equal(t, []string{"activity-started", "variable-created", "timer-scheduled"}, order)
	assert.Equal(t, []string{"timer-scheduled(timer)"}, recorder.Filter(TypeTimerScheduled))
	assert.Equal(t, graph.TypeTask, recorder.Events()[0].Data.ActivityType)
	assert.Equal(t, 3, queue.Size())

	recorder.Clear()
	assert.Empty(t, recorder.Events())
}

func TestPublisher_ListenerFailure(t *testing.T) {
	ctx := context.Background()
	recorder := NewRecorder()
	boom := errors.New("boom")
	publisher := NewPublisher[Lifecycle](nil,
		func(ctx context.Context, e *Record) error { return boom },
		recorder.Listen,
	)
	scope := &execution.Execution{ID: "e2", ProcessID: "p1", ActivityID: "subProcess", IsScope: true}
	err := publisher.Publish(ctx, ForActivity(TypeActivityCancelled, scope, nil))

	var listenerErr *ListenerError
	require.ErrorAs(t, err, &listenerErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, TypeActivityCancelled, listenerErr.EventType)
	assert.Equal(t, "e2", listenerErr.ExecutionID)
	assert.Equal(t, 0, listenerErr.Listener)
	assert.Empty(t, recorder.Events())
}

func TestPublisher_ForwardFailure(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewQueue[Record](memory.Config{QueueBuffer: 1})
	publisher := NewPublisher[Lifecycle](queue)
	require.NoError(t, publisher.Publish(ctx, ForProcess(TypeProcessStarted, "p1")))
	assert.Error(t, publisher.Publish(ctx, ForProcess(TypeProcessCompleted, "p1")))
}

func TestForSubscription(t *testing.T) {
	subscription := &execution.Subscription{ID: "s1", ProcessID: "p1", ExecutionID: "e1", ActivityID: "catch", Kind: graph.EventSignal, Key: "go"}
	e := ForSubscription(TypeSubscriptionRegistered, subscription)
	subscription.Key = "changed"
	assert.Equal(t, "go", e.Data.Subscription.Key)
	assert.Equal(t, "subscription-registered(catch)", Describe(e))
}
