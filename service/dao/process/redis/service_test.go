package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/service/dao/process/processtest"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestService(t *testing.T) {
	_, client := newClient(t)
	srv, err := New(client, "")
	require.NoError(t, err)
	processtest.Run(t, srv)
}

func TestService_Keys(t *testing.T) {
	server, client := newClient(t)
	srv, err := New(client, "test:")
	require.NoError(t, err)
	require.NoError(t, srv.Save(context.Background(), processtest.Sample("p-1", "order")))

	assert.True(t, server.Exists("test:p-1"))
	members, err := server.Members("test:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1"}, members)
}

func TestService_SkipsDanglingIndex(t *testing.T) {
	server, client := newClient(t)
	srv, err := New(client, "")
	require.NoError(t, err)
	require.NoError(t, srv.Save(context.Background(), processtest.Sample("p-1", "order")))
	server.Del(DefaultPrefix + "p-1")

	list, err := srv.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil, "")
	assert.Error(t, err)
}
