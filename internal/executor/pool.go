package executor

import (
	"context"

	"github.com/agbru/picalc/internal/parallel"
	"github.com/agbru/picalc/internal/plan"
)

// Pool submits every segment as an independent task to a parallel.Pool of
// exactly Size() reusable workers. The pool's queue, not the executor,
// decides which worker takes which segment.
type Pool struct {
	size int
	// shared, when set, is an externally owned pool reused across runs.
	shared *parallel.Pool
	opts   options
}

// NewPool creates an executor that starts a pool of size workers for each
// run and closes it afterwards.
func NewPool(size int, opts ...Option) (*Pool, error) {
	if err := checkWorkers(ModePool, size); err != nil {
		return nil, err
	}
	return &Pool{size: size, opts: newOptions(opts)}, nil
}

// NewPoolOn creates an executor that submits to an existing pool. The caller
// owns the pool's lifecycle.
func NewPoolOn(pool *parallel.Pool, opts ...Option) *Pool {
	return &Pool{size: pool.Size(), shared: pool, opts: newOptions(opts)}
}

func (e *Pool) Name() string { return ModePool }

// Workers returns the pool size.
func (e *Pool) Workers() int { return e.size }

func (e *Pool) Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error) {
	pool := e.shared
	if pool == nil {
		var err error
		if pool, err = parallel.NewPool(e.size); err != nil {
			return nil, err
		}
		defer pool.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var errs parallel.ErrorCollector
	results := make([]plan.PartialResult, p.Len())
	for i, seg := range p.Segments {
		err := pool.Submit(ctx, func() {
			if ctx.Err() != nil {
				errs.SetError(ctx.Err())
				return
			}
			res, err := e.opts.compute(ctx, seg)
			if err != nil {
				errs.SetError(err)
				cancel()
				return
			}
			results[i] = res
		})
		if err != nil {
			errs.SetError(err)
			break
		}
	}

	if err := pool.Wait(); err != nil {
		errs.SetError(err)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
