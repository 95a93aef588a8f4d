// Package subscription maintains the event subscriptions owned by executions.
// It never matches deliveries itself; correlation components query it.
package subscription

import (
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/runtime/execution"
)

// Manager keeps at most one subscription per (execution, activity, kind)
type Manager struct{}

// New creates a manager
func New() *Manager {
	return &Manager{}
}

// Register creates a subscription for the execution, first deleting a stale
// one with the same (execution, activity, kind). The stale entry, if any, is returned.
func (m *Manager) Register(process *execution.Process, executionID, activityID string, kind graph.EventKind, key string) (created, stale *execution.Subscription) {
	for _, candidate := range process.SubscriptionsOf(executionID) {
		if candidate.ActivityID == activityID && candidate.Kind == kind {
			stale = process.RemoveSubscription(candidate.ID)
			break
		}
	}
	created = process.AddSubscription(executionID, activityID, kind, key)
	return created, stale
}

// CancelForExecution deletes and returns the subscriptions owned by the execution
func (m *Manager) CancelForExecution(process *execution.Process, executionID string) []*execution.Subscription {
	var ret []*execution.Subscription
	for _, candidate := range process.SubscriptionsOf(executionID) {
		ret = append(ret, process.RemoveSubscription(candidate.ID))
	}
	return ret
}

// Consume deletes a subscription that has been triggered
func (m *Manager) Consume(process *execution.Process, id string) *execution.Subscription {
	return process.RemoveSubscription(id)
}

// Find returns subscriptions correlated by kind and key
func (m *Manager) Find(process *execution.Process, kind graph.EventKind, key string) []*execution.Subscription {
	return process.FindSubscriptions(kind, key)
}
