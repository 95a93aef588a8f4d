package migration

import "fmt"

// UnknownActivityError reports a directive naming an activity missing from the definition
type UnknownActivityError struct {
	ActivityID string
	Role       string
}

func (e *UnknownActivityError) Error() string {
	return fmt.Sprintf("unknown %v activity: %v", e.Role, e.ActivityID)
}

// InvalidScopeTransitionError reports a target the engine cannot safely enter
type InvalidScopeTransitionError struct {
	ActivityID string
	Reason     string
}

func (e *InvalidScopeTransitionError) Error() string {
	return fmt.Sprintf("invalid transition to %v: %v", e.ActivityID, e.Reason)
}

// ValidationError reports a malformed or self-conflicting request
type ValidationError struct {
	Directive int
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Directive < 0 {
		return "invalid migration request: " + e.Reason
	}
	return fmt.Sprintf("invalid migration directive %d: %v", e.Directive, e.Reason)
}

// UnresolvedScopeError reports a local variable whose scope is not entered by the request
type UnresolvedScopeError struct {
	ScopeActivityID string
	Name            string
}

func (e *UnresolvedScopeError) Error() string {
	return fmt.Sprintf("local variable %v targets %v which is not created by the migration", e.Name, e.ScopeActivityID)
}

// ConcurrentModificationError reports an execution that changed after planning
type ConcurrentModificationError struct {
	ProcessID   string
	ExecutionID string
	ActivityID  string
	Step        string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("process %v was modified concurrently: execution %v is no longer at %q (step: %v)",
		e.ProcessID, e.ExecutionID, e.ActivityID, e.Step)
}

// SchedulerError reports a scheduler failure while applying a plan; the
// aggregate was not committed but scheduler side effects may remain
type SchedulerError struct {
	ProcessID   string
	ExecutionID string
	ActivityID  string
	Step        string
	Err         error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler failed during %v (process: %v, execution: %v, activity: %v): %v",
		e.Step, e.ProcessID, e.ExecutionID, e.ActivityID, e.Err)
}

func (e *SchedulerError) Unwrap() error { return e.Err }
