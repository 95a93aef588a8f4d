package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/internal/idgen"
	"github.com/viant/shift/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int  `json:"maxRetries" yaml:"maxRetries"`
	DeadLetter  bool `json:"deadLetter" yaml:"deadLetter"`
	QueueBuffer int  `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		DeadLetter:  true,
		QueueBuffer: 1024,
	}
}

// Message is an in-memory queue message
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
	lastErr    error
}

// ID returns the message id
func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack requeues the message until MaxRetries is exhausted, then moves it to
// the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	if m.processed {
		m.mu.Unlock()
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	m.lastErr = err
	m.mu.Unlock()

	if m.retryCount < m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:         m.id,
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount + 1,
			createdAt:  clock.Now(),
		}
		return m.queue.enqueue(retry)
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements a bounded in-memory messaging.Queue. Publish fails with
// messaging.ErrQueueFull instead of blocking when the buffer is exhausted.
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.enqueue(&Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	})
}

func (q *Queue[T]) enqueue(msg *Message[T]) error {
	select {
	case q.messages <- msg:
		return nil
	default:
		return messaging.ErrQueueFull
	}
}

// Consume retrieves a single item from the queue, blocking until one is
// available or ctx is done
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Drain returns all currently buffered payloads without blocking
func (q *Queue[T]) Drain() []T {
	var ret []T
	for {
		select {
		case msg := <-q.messages:
			msg.processed = true
			ret = append(ret, msg.payload)
		default:
			return ret
		}
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
