package scheduler

import "fmt"

// Error reports a scheduler collaborator failure for an execution's activity
type Error struct {
	Op          string
	ExecutionID string
	ActivityID  string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scheduler failed to %v (execution: %v, activity: %v): %v", e.Op, e.ExecutionID, e.ActivityID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
