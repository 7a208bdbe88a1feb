package executor

import (
	"context"

	"github.com/agbru/picalc/internal/plan"
)

// Sequential sums segments one after the other, in plan order, on the
// calling goroutine. It is the correctness baseline for every other strategy.
type Sequential struct {
	opts options
}

// NewSequential creates a sequential executor.
func NewSequential(opts ...Option) *Sequential {
	return &Sequential{opts: newOptions(opts)}
}

func (s *Sequential) Name() string { return ModeSequential }

func (s *Sequential) Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error) {
	results := make([]plan.PartialResult, 0, p.Len())
	for _, seg := range p.Segments {
		res, err := s.opts.compute(ctx, seg)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
