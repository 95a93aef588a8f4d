package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/service/messaging"
)

type testPayload struct {
	ID    string
	Count int
}

func TestQueue(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &testPayload{ID: "test-1", Count: 1}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, "test-1", message.T().ID)

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(errors.New("late")))
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	queue := NewQueue[testPayload](config)
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &testPayload{ID: "retry"}))

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err, "attempt %d", attempt)
		assert.Equal(t, "retry", message.T().ID)
		require.NoError(t, message.Nack(errors.New("failed")))
	}
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_Bounded(t *testing.T) {
	queue := NewQueue[testPayload](Config{QueueBuffer: 1})
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &testPayload{ID: "a"}))
	assert.ErrorIs(t, queue.Publish(ctx, &testPayload{ID: "b"}), messaging.ErrQueueFull)

	drained := queue.Drain()
	assert.Equal(t, []testPayload{{ID: "a"}}, drained)
	assert.Empty(t, queue.Drain())
}

func TestQueue_ConsumeCancelled(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	assert.Error(t, queue.Publish(cancelled, &testPayload{ID: "x"}))
}
