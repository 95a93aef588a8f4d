// Package processtest holds the behaviour every process store must satisfy.
package processtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
)

// Sample returns a running process with a nested execution, a subscription and an instance variable
func Sample(id, definitionID string) *execution.Process {
	ret := execution.New(id, definitionID)
	ret.SetVariable("customer", "acme")
	scope := ret.AddExecution(ret.Root(), "subProcess", true)
	leaf := ret.AddExecution(scope, "subTask", false)
	_, _ = ret.SetLocal(leaf.ID, "name", "John")
	ret.AddSubscription(scope.ID, "onSignalStart", "signal", "mySignal")
	return ret
}

// Run exercises the store contract
func Run(t *testing.T, store dao.Service[string, execution.Process]) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		sample := Sample("p-1", "order")
		require.NoError(t, store.Save(ctx, sample))
		loaded, err := store.Load(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, sample.ID, loaded.ID)
		assert.Equal(t, sample.DefinitionID, loaded.DefinitionID)
		assert.Equal(t, sample.Variables, loaded.Variables)
		assert.Equal(t, sample.Render(), loaded.Render())
		assert.Len(t, loaded.Subscriptions, 1)
	})

	t.Run("overwrite", func(t *testing.T) {
		sample := Sample("p-2", "order")
		require.NoError(t, store.Save(ctx, sample))
		sample.Revision = 3
		sample.Complete()
		require.NoError(t, store.Save(ctx, sample))
		loaded, err := store.Load(ctx, "p-2")
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.Revision)
		assert.True(t, loaded.IsCompleted())
	})

	t.Run("list filters", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, Sample("p-3", "invoice")))
		all, err := store.List(ctx)
		require.NoError(t, err)
		var ids []string
		for _, p := range all {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"p-1", "p-2", "p-3"}, ids)

		running, err := store.List(ctx, dao.NewParameter(process.ParamState, execution.StateRunning))
		require.NoError(t, err)
		require.Len(t, running, 2)
		assert.Equal(t, "p-1", running[0].ID)

		invoices, err := store.List(ctx, dao.NewParameter(process.ParamDefinitionID, "invoice"))
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, "p-3", invoices[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "p-3"))
		_, err := store.Load(ctx, "p-3")
		assert.ErrorIs(t, err, dao.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "p-3"), dao.ErrNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.ErrorIs(t, store.Save(ctx, nil), dao.ErrNilEntity)
		assert.ErrorIs(t, store.Save(ctx, &execution.Process{}), dao.ErrInvalidID)
		_, err := store.Load(ctx, "")
		assert.Error(t, err)
	})
}
