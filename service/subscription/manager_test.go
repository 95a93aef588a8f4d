package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
)

func TestManager(t *testing.T) {
	process := execution.New("p1", "events")
	root := process.Root()
	leaf := process.AddExecution(root, "catchSignal", false)
	manager := New()

	first, stale := manager.Register(process, leaf.ID, "catchSignal", graph.EventSignal, "go")
	require.NotNil(t, first)
	assert.Nil(t, stale)

	second, stale := manager.Register(process, leaf.ID, "catchSignal", graph.EventSignal, "go")
	require.NotNil(t, stale)
	assert.Equal(t, first.ID, stale.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, process.SubscriptionsOf(leaf.ID), 1)

	_, stale = manager.Register(process, leaf.ID, "catchSignal", graph.EventMessage, "go")
	assert.Nil(t, stale)
	_, _ = manager.Register(process, root.ID, "start", graph.EventMessage, "go")
	assert.NoError(t, process.Validate(nil))

	assert.Len(t, manager.Find(process, graph.EventMessage, "go"), 2)
	assert.Len(t, manager.Find(process, graph.EventSignal, "go"), 1)
	assert.Empty(t, manager.Find(process, graph.EventSignal, "stop"))

	cancelled := manager.CancelForExecution(process, leaf.ID)
	assert.Len(t, cancelled, 2)
	assert.Empty(t, process.SubscriptionsOf(leaf.ID))

	remaining := process.SubscriptionsOf(root.ID)
	require.Len(t, remaining, 1)
	assert.NotNil(t, manager.Consume(process, remaining[0].ID))
	assert.Nil(t, manager.Consume(process, remaining[0].ID))
	assert.Empty(t, process.Subscriptions)
}
