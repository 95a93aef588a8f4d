package event

import (
	"context"
	"fmt"
	"sync"
)

// Recorder keeps every lifecycle event it receives, in order
type Recorder struct {
	mu     sync.Mutex
	events []*Record
}

// NewRecorder creates a recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Listen is a Listener appending the event
func (r *Recorder) Listen(_ context.Context, e *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns recorded events
func (r *Recorder) Events() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Record(nil), r.events...)
}

// Clear forgets recorded events
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Summary returns events as type(subject) strings: the activity for activity,
// job and subscription events, name=value for variables.
func (r *Recorder) Summary() []string {
	var ret []string
	for _, e := range r.Events() {
		ret = append(ret, Describe(e))
	}
	return ret
}

// Describe renders a single event as type(subject)
func Describe(e *Record) string {
	subject := e.Context.ActivityID
	if v := e.Data.Variable; v != nil {
		subject = fmt.Sprintf("%v=%v", v.Name, v.Value)
	}
	return fmt.Sprintf("%v(%v)", e.Context.EventType, subject)
}

// Filter returns the summary restricted to the given types
func (r *Recorder) Filter(types ...Type) []string {
	allowed := map[Type]bool{}
	for _, t := range types {
		allowed[t] = true
	}
	var ret []string
	for _, e := range r.Events() {
		if allowed[e.Type()] {
			ret = append(ret, Describe(e))
		}
	}
	return ret
}
