package orchestration

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/picalc/internal/aggregate"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/plan"
)

const tracerName = "github.com/agbru/picalc/internal/orchestration"

// Run is one execution of a plan. Create it before the executor and pass
// Observe to executor.WithObserver so that progress and per-segment metrics
// follow the workers.
type Run struct {
	// ID identifies the run in logs and traces.
	ID   string
	Mode string
	Plan plan.Plan

	progress *format.Progress
	metrics  *metrics.Metrics
	logger   logging.Logger
	timeout  time.Duration
	reporter ProgressReporter
	out      io.Writer
}

// RunOption configures a Run.
type RunOption func(*Run)

// WithMetrics records segment and run metrics into m.
func WithMetrics(m *metrics.Metrics) RunOption {
	return func(r *Run) { r.metrics = m }
}

// WithLogger sets the run logger.
func WithLogger(l logging.Logger) RunOption {
	return func(r *Run) { r.logger = l }
}

// WithTimeout bounds the execution. Exceeding it fails the run with a
// TimeoutError.
func WithTimeout(d time.Duration) RunOption {
	return func(r *Run) { r.timeout = d }
}

// WithProgressReporter displays progress on out while the run executes.
func WithProgressReporter(pr ProgressReporter, out io.Writer) RunOption {
	return func(r *Run) { r.reporter, r.out = pr, out }
}

// NewRun prepares a run of p under the given mode name.
func NewRun(mode string, p plan.Plan, opts ...RunOption) *Run {
	r := &Run{
		ID:       uuid.NewString(),
		Mode:     mode,
		Plan:     p,
		progress: format.NewProgress(p.Iterations),
		logger:   logging.Nop(),
		reporter: NullProgressReporter{},
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe records one completed segment. It has the executor.Observer
// signature and is safe for concurrent use.
func (r *Run) Observe(result plan.PartialResult, elapsed time.Duration) {
	r.progress.Add(result.Segment.Len())
	if r.metrics != nil {
		r.metrics.ObserveSegment(r.Mode, elapsed)
	}
	r.logger.Debug("segment done",
		logging.String("run", r.ID),
		logging.String("segment", result.Segment.String()),
		logging.Duration("elapsed", elapsed))
}

// Progress returns the run's progress tracker.
func (r *Run) Progress() *format.Progress { return r.progress }

// Execute runs the plan on exec and aggregates the results. A failed run
// returns no result.
func (r *Run) Execute(ctx context.Context, exec executor.Executor) (aggregate.RunResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestration.Run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", r.ID),
		attribute.String("run.mode", r.Mode),
		attribute.Int64("run.iterations", int64(r.Plan.Iterations)),
		attribute.Int("run.segments", r.Plan.Len()),
	)

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.metrics != nil {
		r.metrics.RunStarted()
	}
	r.logger.Info("run started",
		logging.String("run", r.ID),
		logging.String("mode", r.Mode),
		logging.Uint64("iterations", r.Plan.Iterations),
		logging.Int("segments", r.Plan.Len()))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go r.reporter.DisplayProgress(&wg, r.progress, done, r.out)

	start := time.Now()
	results, err := exec.Execute(runCtx, r.Plan)
	elapsed := time.Since(start)
	close(done)
	wg.Wait()

	if err == nil {
		var res aggregate.RunResult
		if res, err = aggregate.Aggregate(r.Plan, results, elapsed); err == nil {
			if r.metrics != nil {
				r.metrics.RunSucceeded(r.Mode, elapsed, res.Error)
			}
			r.logger.Info("run finished",
				logging.String("run", r.ID),
				logging.Float64("estimate", res.Estimate),
				logging.Float64("error", res.Error),
				logging.Duration("elapsed", elapsed))
			span.SetStatus(codes.Ok, "")
			return res, nil
		}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = apperrors.TimeoutError{Operation: r.Mode, Limit: r.timeout}
	}
	if r.metrics != nil {
		r.metrics.RunFailed(r.Mode)
	}
	r.logger.Error("run failed", err, logging.String("run", r.ID), logging.String("mode", r.Mode))
	span.RecordError(err)
	span.SetStatus(codes.Error, "run failed")
	return aggregate.RunResult{}, err
}
