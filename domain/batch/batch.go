package batch

import "sync"

// Batch is the ordered set of jobs known to the application.
// Order is insertion order; duplicate identities are rejected on insert.
type Batch struct {
	mu    sync.RWMutex
	jobs  []*Job
	index map[ID]*Job
}

// New creates an empty batch
func New() *Batch {
	return &Batch{index: make(map[ID]*Job)}
}

// Add appends a job for the input unless a job with the same identity exists.
// It returns the job and whether it was newly added.
func (b *Batch) Add(in Input) (*Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := in.ID()
	if existing, ok := b.index[id]; ok {
		return existing, false
	}
	job := NewJob(in)
	b.jobs = append(b.jobs, job)
	b.index[id] = job
	return job, true
}

// Get returns the job with the given identity
func (b *Batch) Get(id ID) (*Job, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	job, ok := b.index[id]
	return job, ok
}

// Jobs returns all jobs in insertion order
func (b *Batch) Jobs() []*Job {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Job, len(b.jobs))
	copy(out, b.jobs)
	return out
}

// WithStatus returns the jobs currently in status s, in insertion order
func (b *Batch) WithStatus(s Status) []*Job {
	var out []*Job
	for _, job := range b.Jobs() {
		if job.Status() == s {
			out = append(out, job)
		}
	}
	return out
}

// Count returns the number of jobs in status s
func (b *Batch) Count(s Status) int {
	return len(b.WithStatus(s))
}

// Len returns the number of jobs
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.jobs)
}

// Outputs returns the results of done jobs in insertion order
func (b *Batch) Outputs() []Output {
	var out []Output
	for _, job := range b.Jobs() {
		snap := job.Snapshot()
		if snap.Status != StatusDone {
			continue
		}
		out = append(out, Output{ID: snap.ID, Name: snap.Name, Data: snap.Output})
	}
	return out
}

// Clear removes every job
func (b *Batch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = nil
	b.index = make(map[ID]*Job)
}
