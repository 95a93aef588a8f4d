package shift

import (
	"errors"

	"github.com/viant/shift/service/processor"
)

var (
	// ErrDefinitionNotFound is returned when a process references an unknown definition
	ErrDefinitionNotFound = errors.New("definition not found")
	// ErrProcessExists is returned when starting a process with a taken id
	ErrProcessExists = errors.New("process already exists")
	// ErrProcessCompleted is returned when operating on an ended process
	ErrProcessCompleted = processor.ErrProcessCompleted
	// ErrJobNotFound is returned when firing a job the process does not own
	ErrJobNotFound = processor.ErrJobNotFound
	// ErrExecutionNotFound is returned when an execution does not exist in the process
	ErrExecutionNotFound = processor.ErrExecutionNotFound
)
