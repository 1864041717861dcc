package trim

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called once per finished job with the number of jobs
// finished so far in the current run. Calls are serialized.
type ProgressFunc func(done, total int, job batch.Snapshot)

// RunSummary reports what a single RunAll call did
type RunSummary struct {
	RunID    string
	Total    int
	Done     int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Service owns a batch of file jobs and runs them through a Processor
type Service struct {
	batch       *batch.Batch
	processor   Processor
	spec        audio.TrimSpec
	concurrency int
	logger      *zap.Logger
	progress    ProgressFunc
	progressMu  sync.Mutex
}

// Option is a functional option for configuring Service
type Option func(*Service)

// WithConcurrency sets how many jobs may run at once (minimum 1)
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress sets the progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// NewService creates a new batch service. A nil batch starts a fresh one.
func NewService(b *batch.Batch, processor Processor, spec audio.TrimSpec, opts ...Option) *Service {
	if b == nil {
		b = batch.New()
	}
	s := &Service{
		batch:       b,
		processor:   processor,
		spec:        spec,
		concurrency: 1,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetTrimSpec changes the trim duration used by subsequent runs
func (s *Service) SetTrimSpec(spec audio.TrimSpec) {
	s.spec = spec
}

// TrimSpec returns the configured trim duration
func (s *Service) TrimSpec() audio.TrimSpec {
	return s.spec
}

// Add accepts an input into the batch. Inputs that are not MP3 or whose
// identity is already present are ignored and false is returned.
func (s *Service) Add(in batch.Input) bool {
	if !isAcceptedType(in.ContentType) {
		s.logger.Debug("ignoring input with unsupported type",
			zap.String("name", in.Name),
			zap.String("content_type", in.ContentType),
		)
		return false
	}

	job, added := s.batch.Add(in)
	if !added {
		s.logger.Debug("ignoring duplicate input", zap.String("job_id", string(job.ID())))
		return false
	}
	return true
}

// AddAll adds every input and returns how many were accepted
func (s *Service) AddAll(inputs []batch.Input) int {
	accepted := 0
	for _, in := range inputs {
		if s.Add(in) {
			accepted++
		}
	}
	return accepted
}

// RunAll processes every idle job. It fails only when the trim duration is
// invalid; failures of individual files are recorded on their jobs.
// After ctx is cancelled no further job starts, but jobs already running
// finish normally.
func (s *Service) RunAll(ctx context.Context) (*RunSummary, error) {
	if err := s.spec.Validate(); err != nil {
		return nil, &ValidationError{
			Message:    err.Error(),
			Suggestion: "audio-trimmer trim --seconds <value greater than 0>",
			Err:        err,
		}
	}

	jobs := s.batch.WithStatus(batch.StatusIdle)
	summary := &RunSummary{
		RunID: uuid.NewString(),
		Total: len(jobs),
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("batch run started",
		zap.Int("jobs", len(jobs)),
		zap.Float64("trim_seconds", s.spec.Seconds),
		zap.Int("concurrency", s.concurrency),
	)

	started := time.Now()
	var done, failed atomic.Int64
	finished := 0

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			status, ran := s.runJob(ctx, logger, job)
			if !ran {
				return nil
			}
			switch status {
			case batch.StatusDone:
				done.Add(1)
			case batch.StatusError:
				failed.Add(1)
			}
			s.reportProgress(&finished, summary.Total, job)
			return nil
		})
	}
	_ = g.Wait()

	summary.Done = int(done.Load())
	summary.Failed = int(failed.Load())
	summary.Skipped = summary.Total - summary.Done - summary.Failed
	summary.Duration = time.Since(started)

	logger.Info("batch run finished",
		zap.Int("done", summary.Done),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}

// runJob drives one job to a terminal state. It returns false when the job
// was not idle anymore (picked up by another run).
func (s *Service) runJob(ctx context.Context, logger *zap.Logger, job *batch.Job) (batch.Status, bool) {
	if err := job.Start(); err != nil {
		logger.Debug("skipping job", zap.String("job_id", string(job.ID())), zap.Error(err))
		return job.Status(), false
	}

	in := job.Input()
	jobLogger := logger.With(zap.String("job_id", string(job.ID())), zap.String("file", in.Name))

	// A started job always runs to DONE or ERROR so its encoder is flushed or discarded
	result, err := s.processor.Process(context.WithoutCancel(ctx), in.Data, s.spec)
	if err != nil {
		jobLogger.Warn("file failed", zap.Error(err))
		if ferr := job.Fail(err); ferr != nil {
			jobLogger.Error("failed to record job failure", zap.Error(ferr))
		}
		return job.Status(), true
	}

	if cerr := job.Complete(result.Output); cerr != nil {
		jobLogger.Error("failed to record job output", zap.Error(cerr))
		return job.Status(), true
	}
	jobLogger.Info("file trimmed",
		zap.Int("start_offset", result.StartOffset),
		zap.Int("samples", result.TrimmedSamples),
		zap.Int("bytes", len(result.Output)),
	)
	return job.Status(), true
}

// reportProgress counts a finished job and reports it. The count and the
// callback share one lock so callers observe done values in order.
func (s *Service) reportProgress(finished *int, total int, job *batch.Job) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	*finished++
	if s.progress != nil {
		s.progress(*finished, total, job.Snapshot())
	}
}

// Completed returns the outputs of done jobs in insertion order
func (s *Service) Completed() []batch.Output {
	return s.batch.Outputs()
}

// PendingCount returns the number of idle jobs
func (s *Service) PendingCount() int {
	return s.batch.Count(batch.StatusIdle)
}

// DoneCount returns the number of done jobs
func (s *Service) DoneCount() int {
	return s.batch.Count(batch.StatusDone)
}

// ErrorCount returns the number of failed jobs
func (s *Service) ErrorCount() int {
	return s.batch.Count(batch.StatusError)
}

// Jobs returns a snapshot of every job in insertion order
func (s *Service) Jobs() []batch.Snapshot {
	jobs := s.batch.Jobs()
	out := make([]batch.Snapshot, len(jobs))
	for i, job := range jobs {
		out[i] = job.Snapshot()
	}
	return out
}

// Reset returns a failed job to idle so the next RunAll picks it up again
func (s *Service) Reset(id batch.ID) error {
	job, ok := s.batch.Get(id)
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	return job.Reset()
}

// ResetFailed returns every failed job to idle and reports how many were reset
func (s *Service) ResetFailed() int {
	n := 0
	for _, job := range s.batch.WithStatus(batch.StatusError) {
		if job.Reset() == nil {
			n++
		}
	}
	return n
}

// Clear removes every job from the batch
func (s *Service) Clear() {
	s.batch.Clear()
}

// isAcceptedType reports whether contentType is audio/mpeg (parameters ignored)
func isAcceptedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	return strings.EqualFold(mediaType, audio.MimeTypeMP3)
}
