package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/service/dao/process/processtest"
)

func TestService(t *testing.T) {
	processtest.Run(t, New())
}

func TestService_IsolatesCopies(t *testing.T) {
	srv := New()
	sample := processtest.Sample("p-1", "order")
	require.NoError(t, srv.Save(context.Background(), sample))
	sample.SetVariable("customer", "changed")

	loaded, err := srv.Load(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.Variables["customer"])
	loaded.Revision = 9

	again, err := srv.Load(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Revision)
}
