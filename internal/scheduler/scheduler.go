// Package scheduler runs independent jobs on a bounded worker pool. Every job gets its
// own logger and deadline; one job failing never stops the others.
package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusPassed    Status = "PASSED"
	StatusFailed    Status = "FAILED"
	StatusTimeout   Status = "TIMEOUT"
	StatusException Status = "EXCEPTION"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusRunning, StatusPassed, StatusFailed, StatusTimeout, StatusException}

// Func is the body of a job. log writes to the job's own buffer.
type Func func(ctx context.Context, log *logger.Logger) (any, error)

// Job is one unit of work.
type Job struct {
	Key  string
	Func Func
	// Timeout overrides the scheduler default when positive.
	Timeout time.Duration
}

// Result is the outcome of one job.
type Result struct {
	Key    string
	Status Status
	// Value is what the job returned. It is nil unless the job passed.
	Value    any
	Err      error
	Logs     string
	Started  time.Time
	Duration time.Duration
}

// Report tallies results by status.
type Report struct {
	Total  int
	Counts map[Status]int
}

// Passed reports whether every job passed.
func (r Report) Passed() bool {
	return r.Counts[StatusPassed] == r.Total
}

// ResultSink receives every finished result, e.g. to persist it.
//
//go:generate mockgen -destination=../../mocks/mock_result_sink.go -package=mocks github.com/rxtech-lab/argo-replay/internal/scheduler ResultSink
type ResultSink interface {
	Record(ctx context.Context, result Result) error
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithWorkers bounds how many jobs run at once. Non-positive values keep the default.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout sets the default per-job deadline. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// WithLogger sets the logger for scheduler events.
func WithLogger(log *logger.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithSink records every result in sink.
func WithSink(sink ResultSink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(s *Scheduler) {
		s.progress = w
	}
}

// WithJobLogLevel sets the level of the per-job loggers.
func WithJobLogLevel(level zapcore.Level) Option {
	return func(s *Scheduler) {
		s.jobLevel = level
	}
}

// Scheduler collects jobs and runs them.
type Scheduler struct {
	jobs     []Job
	workers  int
	timeout  time.Duration
	logger   *logger.Logger
	sink     ResultSink
	progress io.Writer
	jobLevel zapcore.Level
}

// New creates a scheduler with one worker per CPU.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:     nil,
		workers:  runtime.NumCPU(),
		timeout:  0,
		logger:   logger.NewNopLogger(),
		sink:     nil,
		progress: nil,
		jobLevel: zapcore.DebugLevel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit queues a job. Keys must be unique.
func (s *Scheduler) Submit(job Job) error {
	if job.Key == "" {
		return errors.New(errors.ErrCodeMissingParameter, "job key is required")
	}

	if job.Func == nil {
		return errors.Newf(errors.ErrCodeMissingParameter, "job %s has no function", job.Key)
	}

	for _, existing := range s.jobs {
		if existing.Key == job.Key {
			return errors.Newf(errors.ErrCodeInvalidParameter, "job %s is already submitted", job.Key)
		}
	}

	s.jobs = append(s.jobs, job)

	return nil
}

// Len is the number of submitted jobs.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}

// Run executes every submitted job and waits for all of them. Results are in submission
// order. Canceling ctx stops jobs that have not started; they report Failed.
//
// A job that outlives its deadline is reported as Timeout as soon as the deadline passes,
// but it keeps its worker slot until its function returns. At most the configured number
// of job functions ever run at once, and Run does not return while one is still running.
func (s *Scheduler) Run(ctx context.Context) ([]Result, Report) {
	results := make([]Result, len(s.jobs))
	for i, job := range s.jobs {
		results[i] = Result{Key: job.Key, Status: StatusPending}
	}

	var bar *progressbar.ProgressBar
	if s.progress != nil {
		bar = progressbar.NewOptions(len(s.jobs),
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("Running jobs"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	var g errgroup.Group

	g.SetLimit(s.workers)

	for i, job := range s.jobs {
		g.Go(func() error {
			results[i] = s.runJob(ctx, job)

			if s.sink != nil {
				if err := s.sink.Record(ctx, results[i]); err != nil {
					s.logger.Warn("Failed to record job result", zap.String("job", job.Key), zap.Error(err))
				}
			}

			if bar != nil {
				_ = bar.Add(1)
			}

			return nil
		})
	}

	_ = g.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	report := Tally(results)

	s.logger.Info("Jobs finished",
		zap.Int("total", report.Total),
		zap.Int("passed", report.Counts[StatusPassed]),
		zap.Int("failed", report.Counts[StatusFailed]),
		zap.Int("timeout", report.Counts[StatusTimeout]),
		zap.Int("exception", report.Counts[StatusException]),
	)

	return results, report
}

// runJob executes one job with its own logger and deadline.
func (s *Scheduler) runJob(ctx context.Context, job Job) Result {
	log, buf := logger.NewBufferedLogger(s.jobLevel)
	log = log.With(zap.String("job", job.Key))

	result := Result{Key: job.Key, Status: StatusRunning, Started: time.Now()}

	if err := ctx.Err(); err != nil {
		result.Status = StatusFailed
		result.Err = err

		return result
	}

	timeout := s.timeout
	if job.Timeout > 0 {
		timeout = job.Timeout
	}

	jobCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		jobCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.Debug("Starting job", zap.String("job", job.Key), zap.Duration("timeout", timeout))

	type outcome struct {
		value any
		err   error
		panic any
		stack []byte
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{panic: r, stack: debug.Stack()}
			}
		}()

		value, err := job.Func(jobCtx, log)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case out.panic != nil:
			log.Error("Job panicked", zap.Any("panic", out.panic), zap.ByteString("stack", out.stack))

			result.Status = StatusException
			result.Err = fmt.Errorf("job panicked: %v", out.panic)
		case out.err != nil && stderrors.Is(out.err, context.DeadlineExceeded) && jobCtx.Err() != nil && ctx.Err() == nil:
			result.Status = StatusTimeout
			result.Err = errors.Wrapf(errors.ErrCodeJobTimeout, out.err, "job %s exceeded %s", job.Key, timeout)
		case out.err != nil:
			log.Error("Job failed", zap.Error(out.err))

			result.Status = StatusFailed
			result.Err = out.err
		default:
			result.Status = StatusPassed
			result.Value = out.value
		}
	case <-jobCtx.Done():
		result.Duration = time.Since(result.Started)

		if ctx.Err() != nil {
			result.Status = StatusFailed
			result.Err = ctx.Err()
		} else {
			result.Status = StatusTimeout
			result.Err = errors.Newf(errors.ErrCodeJobTimeout, "job %s exceeded %s", job.Key, timeout)
		}

		// The job ignored its deadline. Hold the slot until it returns and drop its result.
		<-done
	}

	if result.Status == StatusTimeout {
		log.Warn("Job timed out", zap.Duration("timeout", timeout))
	}

	if result.Duration == 0 {
		result.Duration = time.Since(result.Started)
	}

	_ = log.Sync()
	result.Logs = buf.String()

	s.logger.Info("Finished job",
		zap.String("job", job.Key),
		zap.String("status", string(result.Status)),
		zap.Duration("elapsed", result.Duration),
	)

	return result
}

// Tally counts results by status.
func Tally(results []Result) Report {
	report := Report{Total: len(results), Counts: make(map[Status]int, len(AllStatuses))}

	for _, status := range AllStatuses {
		report.Counts[status] = 0
	}

	for _, r := range results {
		report.Counts[r.Status]++
	}

	return report
}
