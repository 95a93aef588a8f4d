// Package scheduler defines the timer job scheduler consumed by the engine.
// Firing and polling loops belong to the host; the engine only schedules and
// cancels.
package scheduler

import (
	"context"

	"github.com/viant/shift/runtime/execution"
)

// Service schedules and cancels timer jobs. Cancellation must be synchronous:
// once CancelJobsForExecution returns, the cancelled jobs can no longer fire.
type Service interface {
	// ScheduleTimer creates a job for the execution's activity due per spec
	ScheduleTimer(ctx context.Context, processID, executionID, activityID, spec string) (*execution.Job, error)

	// CancelJobsForExecution removes every job owned by the execution
	CancelJobsForExecution(ctx context.Context, executionID string) ([]*execution.Job, error)

	// Remove deletes a single job after it fired
	Remove(ctx context.Context, jobID string) error

	// Restore reinstates a job with its id and due time, replacing a job with the same id
	Restore(ctx context.Context, job *execution.Job) error
}
