package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

// Executor runs a plan to completion.
type Executor interface {
	// Name returns the strategy name used for selection and reporting.
	Name() string
	// Execute sums every segment of p and returns one PartialResult per
	// segment, in no particular order.
	Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error)
}

// Observer is notified once per completed segment with the time spent
// summing it. It is called from worker goroutines and must be safe for
// concurrent use.
type Observer func(result plan.PartialResult, elapsed time.Duration)

// QueueDepthMultiplier sizes the work and result channels of the queue
// strategies relative to their worker count.
const QueueDepthMultiplier = 2

type options struct {
	sum      series.SumFunc
	observer Observer
	logger   logging.Logger
}

// Option configures an executor.
type Option func(*options)

// WithSum replaces the segment summing function (series.Sum by default).
func WithSum(sum series.SumFunc) Option {
	return func(o *options) { o.sum = sum }
}

// WithObserver registers a per-segment completion callback.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger used for worker diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{sum: series.Sum, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// compute sums one segment. A panic in the summing function and any error
// other than the run's own cancellation come back as a WorkerFailure naming
// the segment.
func (o options) compute(ctx context.Context, seg plan.Segment) (res plan.PartialResult, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.WorkerFailure{Start: seg.Start, End: seg.End, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return plan.PartialResult{}, err
	}
	value, err := o.sum(ctx, seg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return plan.PartialResult{}, ctxErr
		}
		return plan.PartialResult{}, apperrors.WorkerFailure{Start: seg.Start, End: seg.End, Cause: err}
	}

	res = plan.PartialResult{Segment: seg, Value: value}
	if o.observer != nil {
		o.observer(res, time.Since(start))
	}
	return res, nil
}

func checkWorkers(name string, workers int) error {
	if workers < 1 {
		return apperrors.NewInvalidPartition(0, "%s needs at least 1 worker, got %d", name, workers)
	}
	return nil
}
