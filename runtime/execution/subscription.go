package execution

import (
	"time"

	"github.com/viant/shift/model/graph"
)

// Subscription is a registered correlation entry letting a signal or message
// resume the owning execution.
type Subscription struct {
	ID          string          `json:"id"`
	ProcessID   string          `json:"processId"`
	ExecutionID string          `json:"executionId"`
	ActivityID  string          `json:"activityId"`
	Kind        graph.EventKind `json:"kind"`
	Key         string          `json:"key"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Job is a scheduled timer owned by an execution
type Job struct {
	ID          string    `json:"id"`
	ProcessID   string    `json:"processId"`
	ExecutionID string    `json:"executionId"`
	ActivityID  string    `json:"activityId"`
	Due         string    `json:"due"`
	DueAt       time.Time `json:"dueAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a copy of the subscription
func (s *Subscription) Clone() *Subscription {
	ret := *s
	return &ret
}

// Clone returns a copy of the job
func (j *Job) Clone() *Job {
	ret := *j
	return &ret
}
