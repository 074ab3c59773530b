package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/observability"
)

// JobRunner produces the granule for one job and returns its path.
type JobRunner interface {
	Generate(ctx context.Context, job domain.Job) (string, error)
}

// Notifier announces a written granule.
type Notifier interface {
	Notify(ctx context.Context, job domain.Job, path string) error
}

// Failure records one failed job.
type Failure struct {
	Job    domain.Job
	Reason string
	Err    error
}

// Summary reports the outcome of a Run.
type Summary struct {
	Total     int
	Attempted int
	Succeeded int
	Failures  []Failure
}

// OK reports whether every job was attempted and succeeded.
func (s Summary) OK() bool {
	return s.Attempted == s.Total && s.Succeeded == s.Attempted
}

// Pipeline runs jobs on a bounded pool of workers. A failed job never
// affects its siblings.
type Pipeline struct {
	runner   JobRunner
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	workers  int

	total     atomic.Int64
	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Progress is a point-in-time view of job counts across all runs.
type Progress struct {
	Total     int64 `json:"total"`
	Attempted int64 `json:"attempted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// New creates a Pipeline. notifier may be nil; workers below 1 means 1.
func New(runner JobRunner, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	return &Pipeline{
		runner:   runner,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		workers:  max(workers, 1),
	}
}

// CheckReadiness returns nil once the pipeline has written at least one
// granule, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not written any granules yet")
	}
	return nil
}

// Progress reports job counts so far. Safe to call while Run is in progress.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Total:     p.total.Load(),
		Attempted: p.attempted.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}

type result struct {
	job  domain.Job
	path string
	err  error
}

// Run processes jobs until all are done or ctx is cancelled. Cancellation
// stops dispatching; jobs already running finish.
func (p *Pipeline) Run(ctx context.Context, jobs []domain.Job) Summary {
	p.logger.Info("pipeline started", "jobs", len(jobs), "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	p.total.Add(int64(len(jobs)))
	defer p.metrics.PipelineRunning.Set(0)

	queue := make(chan domain.Job)
	results := make(chan result)

	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results <- p.runJob(ctx, job)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case queue <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := Summary{Total: len(jobs)}
	for r := range results {
		summary.Attempted++
		if r.err == nil {
			summary.Succeeded++
			continue
		}
		summary.Failures = append(summary.Failures, Failure{
			Job:    r.job,
			Reason: domain.Classify(r.err),
			Err:    r.err,
		})
	}
	slices.SortFunc(summary.Failures, func(a, b Failure) int {
		return strings.Compare(a.Job.Key(), b.Job.Key())
	})

	if skipped := summary.Total - summary.Attempted; skipped > 0 {
		p.logger.Warn("pipeline interrupted", "skipped", skipped, "reason", ctx.Err())
	}
	p.logger.Info("pipeline finished",
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failures),
	)
	return summary
}

// runJob executes one job, converting a panic into an ErrInternal failure.
func (p *Pipeline) runJob(ctx context.Context, job domain.Job) (r result) {
	start := time.Now()
	p.metrics.JobsAttempted.Inc()
	p.attempted.Add(1)
	r.job = job

	defer func() {
		if rec := recover(); rec != nil {
			r.path = ""
			r.err = fmt.Errorf("%w: panic: %v", domain.ErrInternal, rec)
		}
		p.metrics.JobDuration.Observe(time.Since(start).Seconds())
		p.record(r)
	}()

	r.path, r.err = p.runner.Generate(ctx, job)
	if r.err == nil {
		p.notify(ctx, job, r.path)
	}
	return r
}

func (p *Pipeline) record(r result) {
	date := r.job.Date.Format(time.DateOnly)
	if r.err != nil {
		reason := domain.Classify(r.err)
		p.metrics.JobsFailed.WithLabelValues(reason).Inc()
		p.failed.Add(1)
		p.logger.Error("job failed",
			"date", date,
			"hemisphere", r.job.Hemisphere,
			"reason", reason,
			"error", r.err,
		)
		return
	}
	p.metrics.JobsSucceeded.Inc()
	p.succeeded.Add(1)
	p.ready.Store(true)
	p.logger.Info("granule written", "date", date, "hemisphere", r.job.Hemisphere, "path", r.path)
}

// notify publishes a granule event. Publish errors are logged and counted
// but do not fail the job.
func (p *Pipeline) notify(ctx context.Context, job domain.Job, path string) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, job, path); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish granule event failed", "error", err, "path", path)
		return
	}
	p.metrics.GranulesPublished.Inc()
}
