// Package series evaluates the Leibniz series for π,
//
//	π/4 = Σ_{k≥0} (−1)^k / (2k+1)
//
// one term or one segment at a time. Everything here is pure and safe to call
// from any number of goroutines.
package series

import (
	"context"
	"math"

	"github.com/agbru/picalc/internal/plan"
)

const (
	// Reference is the value the scaled series converges to.
	Reference = math.Pi

	// Scale converts a raw series sum into an approximation of Reference.
	Scale = 4.0

	// CancelCheckInterval is the number of terms summed between two context
	// checks. Checking every term would dominate the cost of the loop.
	CancelCheckInterval = 1 << 16
)

// SumFunc computes the partial sum of one segment. Executors receive one at
// construction so that the summing capability can be decorated (caching,
// instrumentation) or replaced in tests.
type SumFunc func(ctx context.Context, seg plan.Segment) (float64, error)

// Term returns the k-th term of the series, (−1)^k / (2k+1).
func Term(k uint64) float64 {
	t := 1.0 / (2.0*float64(k) + 1.0)
	if k&1 == 1 {
		return -t
	}
	return t
}

// Sum folds Term over seg in index order. It returns ctx.Err() if the
// context is cancelled while the segment is being summed.
func Sum(ctx context.Context, seg plan.Segment) (float64, error) {
	var total float64
	for k := seg.Start; k < seg.End; k++ {
		if (k-seg.Start)%CancelCheckInterval == CancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		total += Term(k)
	}
	return total, nil
}

// Estimate scales a raw series sum into an approximation of π.
func Estimate(sum float64) float64 {
	return Scale * sum
}

// AbsError returns |Reference − estimate|.
func AbsError(estimate float64) float64 {
	return math.Abs(Reference - estimate)
}

// Tolerance is the bound within which two sums of the same iteration count
// must agree when they were accumulated in different orders. Rounding error
// of a float64 fold grows at most linearly with the number of additions,
// each bounded by the machine epsilon times the magnitude of the running sum
// (at most 1 for this series).
func Tolerance(iterations uint64) float64 {
	const floor = 1e-9
	t := 4 * epsilon * float64(iterations)
	if t < floor {
		return floor
	}
	return t
}

// epsilon is the float64 machine epsilon, 2^-52.
var epsilon = math.Nextafter(1, 2) - 1
