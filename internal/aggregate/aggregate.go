// Package aggregate reduces the partial results of a run into its single
// terminal RunResult.
package aggregate

import (
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

// RunResult is the outcome of one complete run.
type RunResult struct {
	// Iterations is the number of series terms summed.
	Iterations uint64
	// Segments is the number of planned segments.
	Segments int
	// Sum is the raw series sum over [0, Iterations).
	Sum float64
	// Estimate is the approximation of π, Scale × Sum.
	Estimate float64
	// Error is |π − Estimate|.
	Error float64
	// Elapsed is the wall-clock time from dispatch to final collection.
	Elapsed time.Duration
}

// Aggregate checks that results resolve every segment of p exactly once and
// folds their values in plan order, so the total does not depend on the
// order in which workers finished. A missing, duplicated or unplanned result
// yields an IncompletePlanError and no RunResult.
func Aggregate(p plan.Plan, results []plan.PartialResult, elapsed time.Duration) (RunResult, error) {
	index := make(map[plan.Segment]int, p.Len())
	for i, seg := range p.Segments {
		index[seg] = i
	}

	values := make([]float64, p.Len())
	filled := make([]bool, p.Len())
	unexpected := 0
	for _, r := range results {
		i, ok := index[r.Segment]
		if !ok || filled[i] {
			unexpected++
			continue
		}
		values[i] = r.Value
		filled[i] = true
	}

	missing := 0
	for _, ok := range filled {
		if !ok {
			missing++
		}
	}
	if missing > 0 || unexpected > 0 {
		return RunResult{}, apperrors.IncompletePlanError{Missing: missing, Unexpected: unexpected}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	estimate := series.Estimate(sum)
	return RunResult{
		Iterations: p.Iterations,
		Segments:   p.Len(),
		Sum:        sum,
		Estimate:   estimate,
		Error:      series.AbsError(estimate),
		Elapsed:    elapsed,
	}, nil
}
