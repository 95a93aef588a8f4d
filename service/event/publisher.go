package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/service/messaging"
)

// Listener observes published events; a returned error aborts the operation
// that published the event.
type Listener[T any] func(ctx context.Context, event *Event[T]) error

// ListenerError reports a listener failure together with the event it rejected
type ListenerError struct {
	EventType   Type
	ProcessID   string
	ExecutionID string
	ActivityID  string
	Listener    int
	Err         error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d rejected %v (process: %v, execution: %v, activity: %v): %v",
		e.Listener, e.EventType, e.ProcessID, e.ExecutionID, e.ActivityID, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// Publisher delivers events synchronously to listeners in registration order
// and optionally forwards them to a queue for asynchronous consumers.
type Publisher[T any] struct {
	mu        sync.RWMutex
	listeners []Listener[T]
	queue     messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher; queue may be nil
func NewPublisher[T any](queue messaging.Queue[Event[T]], listeners ...Listener[T]) *Publisher[T] {
	return &Publisher[T]{queue: queue, listeners: listeners}
}

// Subscribe appends a listener
func (p *Publisher[T]) Subscribe(listener Listener[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

// Publish delivers the event to every listener, stopping at the first failure
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	p.mu.RLock()
	listeners := p.listeners
	p.mu.RUnlock()
	for i, listener := range listeners {
		if err := listener(ctx, event); err != nil {
			ret := &ListenerError{Listener: i, Err: err}
			if event.Context != nil {
				ret.EventType = event.Context.EventType
				ret.ProcessID = event.Context.ProcessID
				ret.ExecutionID = event.Context.ExecutionID
				ret.ActivityID = event.Context.ActivityID
			}
			return ret
		}
	}
	if p.queue != nil {
		if err := p.queue.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to forward %v event: %w", event.Type(), err)
		}
	}
	return nil
}
