package batch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when a job is moved out of order through its lifecycle
var ErrInvalidTransition = errors.New("invalid job status transition")

// Job tracks one input through IDLE -> PROCESSING -> DONE | ERROR.
// Output is set only in DONE and the error message only in ERROR.
type Job struct {
	id    ID
	input Input

	mu     sync.RWMutex
	status Status
	output []byte
	errMsg string
}

// NewJob creates an idle job for the input
func NewJob(in Input) *Job {
	return &Job{
		id:     in.ID(),
		input:  in,
		status: StatusIdle,
	}
}

// ID returns the job identity
func (j *Job) ID() ID {
	return j.id
}

// Input returns the original input
func (j *Job) Input() Input {
	return j.input
}

// Status returns the current status
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Start moves an idle job to processing
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusIdle {
		return fmt.Errorf("%w: cannot start job %s in status %s", ErrInvalidTransition, j.id, j.status)
	}
	j.status = StatusProcessing
	return nil
}

// Complete records the output of a processing job and marks it done
func (j *Job) Complete(output []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusProcessing {
		return fmt.Errorf("%w: cannot complete job %s in status %s", ErrInvalidTransition, j.id, j.status)
	}
	j.status = StatusDone
	j.output = output
	j.errMsg = ""
	return nil
}

// Fail records the failure of a processing job. No output is kept.
func (j *Job) Fail(cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusProcessing {
		return fmt.Errorf("%w: cannot fail job %s in status %s", ErrInvalidTransition, j.id, j.status)
	}
	msg := "unknown error"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	j.status = StatusError
	j.output = nil
	j.errMsg = msg
	return nil
}

// Reset returns a failed job to idle so it can be run again
func (j *Job) Reset() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusError {
		return fmt.Errorf("%w: only failed jobs can be reset, job %s is %s", ErrInvalidTransition, j.id, j.status)
	}
	j.status = StatusIdle
	j.errMsg = ""
	return nil
}

// Snapshot is a consistent copy of a job's observable state
type Snapshot struct {
	ID     ID
	Name   string
	Size   int
	Status Status
	Output []byte
	Error  string
}

// Snapshot returns the current state of the job
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:     j.id,
		Name:   j.input.Name,
		Size:   len(j.input.Data),
		Status: j.status,
		Output: j.output,
		Error:  j.errMsg,
	}
}
