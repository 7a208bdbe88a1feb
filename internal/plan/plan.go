// Package plan partitions the index range [0, iterations) into segments and
// carries the per-segment results produced by executors.
//
// A Plan is built once per run and never mutated. Segments are plain values,
// so handing one to a goroutine, a child process or a remote host transfers
// it by copy.
package plan

import (
	"context"
	"fmt"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// Segment is the half-open index range [Start, End).
type Segment struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the number of indices in the segment.
func (s Segment) Len() uint64 { return s.End - s.Start }

func (s Segment) String() string { return fmt.Sprintf("[%d, %d)", s.Start, s.End) }

// PartialResult is the sum of the series terms of one segment.
type PartialResult struct {
	Segment Segment `json:"segment"`
	Value   float64 `json:"value"`
}

// Plan is the ordered list of segments covering [0, Iterations).
type Plan struct {
	Iterations uint64
	Segments   []Segment
}

// Len returns the number of segments in the plan.
func (p Plan) Len() int { return len(p.Segments) }

// ByCount splits [0, iterations) into exactly count segments whose lengths
// differ by at most one; the first iterations%count segments are the longer
// ones.
func ByCount(iterations uint64, count int) (Plan, error) {
	if count < 1 {
		return Plan{}, apperrors.NewInvalidPartition(iterations, "segment count must be at least 1, got %d", count)
	}
	if iterations < uint64(count) {
		return Plan{}, apperrors.NewInvalidPartition(iterations, "segment count %d exceeds iterations", count)
	}

	n := uint64(count)
	base, extra := iterations/n, iterations%n
	segments := make([]Segment, 0, count)
	var start uint64
	for i := uint64(0); i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		segments = append(segments, Segment{Start: start, End: start + size})
		start += size
	}
	return Plan{Iterations: iterations, Segments: segments}, nil
}

// BySize splits [0, iterations) into segments of size indices; the final
// segment may be shorter.
func BySize(iterations, size uint64) (Plan, error) {
	if err := checkSize(iterations, size); err != nil {
		return Plan{}, err
	}
	segments := make([]Segment, 0, (iterations+size-1)/size)
	for start := uint64(0); start < iterations; start += size {
		segments = append(segments, Segment{Start: start, End: min(start+size, iterations)})
	}
	return Plan{Iterations: iterations, Segments: segments}, nil
}

// ForWorkers derives a segment size from a worker count the way the
// producer/consumer and pool modes chunk their work: size =
// max(1, iterations/workers), which yields at least workers segments.
func ForWorkers(iterations uint64, workers int) (Plan, error) {
	if workers < 1 {
		return Plan{}, apperrors.NewInvalidPartition(iterations, "worker count must be at least 1, got %d", workers)
	}
	return BySize(iterations, max(1, iterations/uint64(workers)))
}

// UniformSize reports the segment size when p is exactly what BySize would
// build for it, which means Generate can reproduce it lazily.
func (p Plan) UniformSize() (uint64, bool) {
	if len(p.Segments) == 0 || p.Verify() != nil {
		return 0, false
	}
	size := p.Segments[0].Len()
	for _, seg := range p.Segments[:len(p.Segments)-1] {
		if seg.Len() != size {
			return 0, false
		}
	}
	return size, p.Segments[len(p.Segments)-1].Len() <= size
}

// Generate streams the segments BySize would produce without materialising
// the whole plan. The channel is closed after the last segment, or early if
// ctx is cancelled. Validation errors are reported before anything is sent.
func Generate(ctx context.Context, iterations, size uint64) (<-chan Segment, error) {
	if err := checkSize(iterations, size); err != nil {
		return nil, err
	}
	out := make(chan Segment)
	go func() {
		defer close(out)
		for start := uint64(0); start < iterations; start += size {
			select {
			case out <- Segment{Start: start, End: min(start+size, iterations)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Verify checks that the segments form a gapless, non-overlapping cover of
// [0, Iterations) in order.
func (p Plan) Verify() error {
	if p.Iterations == 0 {
		return apperrors.NewInvalidPartition(0, "iterations must be at least 1")
	}
	if len(p.Segments) == 0 {
		return apperrors.NewInvalidPartition(p.Iterations, "plan has no segments")
	}
	var next uint64
	for i, s := range p.Segments {
		if s.End <= s.Start {
			return apperrors.NewInvalidPartition(p.Iterations, "segment %d %s is empty", i, s)
		}
		if s.Start != next {
			return apperrors.NewInvalidPartition(p.Iterations, "segment %d %s does not start at %d", i, s, next)
		}
		next = s.End
	}
	if next != p.Iterations {
		return apperrors.NewInvalidPartition(p.Iterations, "segments end at %d", next)
	}
	return nil
}

func checkSize(iterations, size uint64) error {
	if size < 1 {
		return apperrors.NewInvalidPartition(iterations, "segment size must be at least 1")
	}
	if iterations < 1 {
		return apperrors.NewInvalidPartition(iterations, "iterations must be at least 1")
	}
	return nil
}
