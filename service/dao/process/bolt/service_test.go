package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/service/dao/process/processtest"
)

func TestService(t *testing.T) {
	srv, err := New(filepath.Join(t.TempDir(), "shift.db"))
	require.NoError(t, err)
	defer srv.Close()
	processtest.Run(t, srv)
}

func TestService_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shift.db")
	srv, err := New(path)
	require.NoError(t, err)
	require.NoError(t, srv.Save(ctx, processtest.Sample("p-1", "order")))
	require.NoError(t, srv.Close())

	srv, err = New(path)
	require.NoError(t, err)
	defer srv.Close()
	loaded, err := srv.Load(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.Variables["customer"])
}

func TestService_CancelledContext(t *testing.T) {
	srv, err := New(filepath.Join(t.TempDir(), "shift.db"))
	require.NoError(t, err)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, srv.Save(ctx, processtest.Sample("p-1", "order")), context.Canceled)
}
