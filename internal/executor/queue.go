package executor

import (
	"context"
	"sync"

	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/parallel"
	"github.com/agbru/picalc/internal/plan"
)

// consumer drains the work channel until it is closed, emitting one result
// per segment it takes. Returning an error aborts the whole run.
type consumer func(ctx context.Context, id int, work <-chan plan.Segment, results chan<- plan.PartialResult) error

// runQueue wires one producer and workers consumers around a shared work
// channel and a shared results channel. Closing the work channel is the
// end-of-work signal; consumers exit once it is closed and drained. The first
// consumer error cancels the run and is returned in place of the results.
func runQueue(ctx context.Context, workers int, produce func(context.Context, chan<- plan.Segment), consume consumer) ([]plan.PartialResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan plan.Segment, workers*QueueDepthMultiplier)
	results := make(chan plan.PartialResult, workers*QueueDepthMultiplier)

	go func() {
		defer close(work)
		produce(ctx, work)
	}()

	var errs parallel.ErrorCollector
	var wg sync.WaitGroup
	wg.Add(workers)
	for id := range workers {
		go func() {
			defer wg.Done()
			if err := consume(ctx, id, work, results); err != nil {
				errs.SetError(err)
				cancel()
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []plan.PartialResult
	for res := range results {
		collected = append(collected, res)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collected, nil
}

// produceFrom forwards segments from src into work until src is exhausted or
// ctx ends.
func produceFrom(src <-chan plan.Segment) func(context.Context, chan<- plan.Segment) {
	return func(ctx context.Context, work chan<- plan.Segment) {
		for seg := range src {
			select {
			case work <- seg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// producePlan enqueues every segment of p in plan order.
func producePlan(p plan.Plan) func(context.Context, chan<- plan.Segment) {
	return func(ctx context.Context, work chan<- plan.Segment) {
		for _, seg := range p.Segments {
			select {
			case work <- seg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Queue is the producer/consumer strategy served by goroutines: one producer
// enqueues segments and a fixed number of consumers pull them as they become
// free, which suits uneven segment costs.
type Queue struct {
	workers int
	opts    options
}

// NewQueue creates a goroutine-backed producer/consumer executor.
func NewQueue(workers int, opts ...Option) (*Queue, error) {
	if err := checkWorkers(ModeQueueThreaded, workers); err != nil {
		return nil, err
	}
	return &Queue{workers: workers, opts: newOptions(opts)}, nil
}

func (q *Queue) Name() string { return ModeQueueThreaded }

// Workers returns the configured consumer count.
func (q *Queue) Workers() int { return q.workers }

// Execute streams uniform plans from plan.Generate and enqueues any other
// plan segment by segment.
func (q *Queue) Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error) {
	if size, ok := p.UniformSize(); ok {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		if src, err := plan.Generate(ctx, p.Iterations, size); err == nil {
			return q.Stream(ctx, src)
		}
	}
	return runQueue(ctx, q.workers, producePlan(p), q.consume)
}

// Stream consumes segments as src produces them, so consumers can start
// before planning has finished. The caller closes src after the last segment.
func (q *Queue) Stream(ctx context.Context, src <-chan plan.Segment) ([]plan.PartialResult, error) {
	return runQueue(ctx, q.workers, produceFrom(src), q.consume)
}

func (q *Queue) consume(ctx context.Context, id int, work <-chan plan.Segment, results chan<- plan.PartialResult) error {
	taken := 0
	defer func() {
		q.opts.logger.Debug("queue consumer finished", logging.Int("worker", id), logging.Int("segments", taken))
	}()
	for seg := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := q.opts.compute(ctx, seg)
		if err != nil {
			return err
		}
		taken++
		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
