// Package calibration benchmarks the queue-threaded executor over a range of
// worker counts and reports the fastest, so that --threads can be tuned for
// the machine.
package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

// DefaultIterations is the benchmark size when none is given.
const DefaultIterations = 10_000_000

// calibrationResult is the outcome of one benchmarked worker count.
type calibrationResult struct {
	Workers  int
	Duration time.Duration
	Err      error
}

// Options configures a calibration.
type Options struct {
	// Iterations is the size of the benchmarked range.
	Iterations uint64
	// Counts are the worker counts to try; DefaultWorkerCounts when empty.
	Counts []int
	// Sum replaces series.Sum, for tests.
	Sum    series.SumFunc
	Logger logging.Logger
}

// Run benchmarks each worker count once and prints a summary table to out.
// It returns the fastest worker count. Context cancellation stops the
// calibration and is returned as the error.
func Run(ctx context.Context, opts Options, out io.Writer) (int, error) {
	if opts.Iterations == 0 {
		opts.Iterations = DefaultIterations
	}
	if len(opts.Counts) == 0 {
		opts.Counts = DefaultWorkerCounts(false)
	}
	if opts.Sum == nil {
		opts.Sum = series.Sum
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	fmt.Fprintf(out, "Calibrating %s over %d iterations with worker counts %v...\n",
		executor.ModeQueueThreaded, opts.Iterations, opts.Counts)

	results := make([]calibrationResult, 0, len(opts.Counts))
	for _, workers := range opts.Counts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		d, err := measure(ctx, opts, workers)
		if err != nil && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		opts.Logger.Debug("calibration sample",
			logging.Int("workers", workers), logging.Duration("elapsed", d), logging.Err(err))
		results = append(results, calibrationResult{Workers: workers, Duration: d, Err: err})
	}

	best, ok := bestWorkers(results)
	printCalibrationResults(out, results, best)
	if !ok {
		return 0, fmt.Errorf("calibration failed for every worker count")
	}
	printCalibrationOutput(best, out)
	return best, nil
}

func measure(ctx context.Context, opts Options, workers int) (time.Duration, error) {
	p, err := plan.ForWorkers(opts.Iterations, workers)
	if err != nil {
		return 0, err
	}
	exec, err := executor.NewQueue(workers, executor.WithSum(opts.Sum))
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if _, err := exec.Execute(ctx, p); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// bestWorkers returns the fastest successful count; ties go to fewer workers.
func bestWorkers(results []calibrationResult) (int, bool) {
	best, found := 0, false
	var bestDuration time.Duration
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if !found || r.Duration < bestDuration || (r.Duration == bestDuration && r.Workers < best) {
			best, bestDuration, found = r.Workers, r.Duration, true
		}
	}
	return best, found
}
