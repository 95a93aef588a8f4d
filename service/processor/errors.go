package processor

import "errors"

var (
	// ErrExecutionNotFound is returned when an execution does not exist in the instance
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrJobNotFound is returned when a job is not owned by the instance, e.g. after cancellation
	ErrJobNotFound = errors.New("job not found")
	// ErrNotWaiting is returned when completing an execution that is not at a task
	ErrNotWaiting = errors.New("execution is not waiting at a task")
	// ErrNoFlow is returned when an exclusive gateway has no flow to take
	ErrNoFlow = errors.New("no outgoing flow can be taken")
	// ErrStepLimit is returned when a call enters more activities than allowed
	ErrStepLimit = errors.New("step limit exceeded")
	// ErrProcessCompleted is returned when operating on an ended instance
	ErrProcessCompleted = errors.New("process is completed")
	// ErrUnsupported is returned for activities the processor cannot run
	ErrUnsupported = errors.New("unsupported activity")
)
