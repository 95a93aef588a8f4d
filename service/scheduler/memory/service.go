package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/internal/idgen"
	"github.com/viant/shift/model/timer"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/scheduler"
)

// Service is an in-memory scheduler backed by a due-time heap
type Service struct {
	mu   sync.Mutex
	jobs *jobHeap
}

var _ scheduler.Service = (*Service)(nil)

// ScheduleTimer parses spec and schedules a job relative to the current clock
func (s *Service) ScheduleTimer(ctx context.Context, processID, executionID, activityID, spec string) (*execution.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := timer.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule timer for %v: %w", activityID, err)
	}
	now := clock.Now()
	job := &execution.Job{
		ID:          idgen.New(),
		ProcessID:   processID,
		ExecutionID: executionID,
		ActivityID:  activityID,
		Due:         spec,
		DueAt:       parsed.Due(now),
		CreatedAt:   now,
	}
	s.mu.Lock()
	s.jobs.insert(job.Clone())
	s.mu.Unlock()
	return job, nil
}

// CancelJobsForExecution removes jobs owned by the execution
func (s *Service) CancelJobsForExecution(ctx context.Context, executionID string) ([]*execution.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.removeExecution(executionID), nil
}

// Remove deletes a job; unknown ids are ignored
func (s *Service) Remove(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs.remove(jobID)
	return nil
}

// Restore reinstates a job as scheduled
func (s *Service) Restore(ctx context.Context, job *execution.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil || job.ID == "" {
		return fmt.Errorf("job was empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs.insert(job.Clone())
	return nil
}

// Due pops and returns jobs due at or before now, earliest first
func (s *Service) Due(now time.Time) []*execution.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ret []*execution.Job
	for next := s.jobs.peek(); next != nil && !next.DueAt.After(now); next = s.jobs.peek() {
		ret = append(ret, s.jobs.pop())
	}
	return ret
}

// Next returns the earliest scheduled job without removing it
func (s *Service) Next() *execution.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job := s.jobs.peek(); job != nil {
		return job.Clone()
	}
	return nil
}

// Len returns the number of scheduled jobs
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.Len()
}

// New creates a memory scheduler
func New() *Service {
	return &Service{jobs: newJobHeap()}
}
