package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
)

// Static assigns contiguous blocks of segments to a fixed number of
// goroutines before any work starts. Each segment's result lands in its own
// slot, so the only synchronisation is the final join.
type Static struct {
	workers int
	opts    options
}

// NewStatic creates a statically partitioned executor with the given number
// of worker goroutines.
func NewStatic(workers int, opts ...Option) (*Static, error) {
	if err := checkWorkers(ModeThreaded, workers); err != nil {
		return nil, err
	}
	return &Static{workers: workers, opts: newOptions(opts)}, nil
}

func (s *Static) Name() string { return ModeThreaded }

// Workers returns the configured worker count.
func (s *Static) Workers() int { return s.workers }

func (s *Static) Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error) {
	n := p.Len()
	results := make([]plan.PartialResult, n)
	g, ctx := errgroup.WithContext(ctx)

	for w := range s.workers {
		lo, hi := w*n/s.workers, (w+1)*n/s.workers
		if lo == hi {
			continue
		}
		g.Go(func() error {
			s.opts.logger.Debug("static worker started",
				logging.Int("worker", w), logging.Int("segments", hi-lo))
			for i := lo; i < hi; i++ {
				res, err := s.opts.compute(ctx, p.Segments[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
