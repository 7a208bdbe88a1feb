package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// QueueDepthMultiplier sizes the pool's internal task queue relative to its
// worker count. Submitters block once the queue is full.
const QueueDepthMultiplier = 4

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("parallel: pool is closed")

// Pool runs submitted tasks on exactly Size() long-lived workers. The queue
// between submitters and workers is owned by the pool.
type Pool struct {
	size    int
	tasks   chan func()
	workers sync.WaitGroup
	pending sync.WaitGroup

	// errs collects panics since the last Wait.
	errMu sync.Mutex
	errs  *ErrorCollector

	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers. size must be at least 1.
func NewPool(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("parallel: pool size must be at least 1, got %d", size)
	}
	p := &Pool{
		size:  size,
		tasks: make(chan func(), size*QueueDepthMultiplier),
		errs:  new(ErrorCollector),
	}
	p.workers.Add(size)
	for range size {
		go p.work()
	}
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

func (p *Pool) work() {
	defer p.workers.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.errMu.Lock()
			errs := p.errs
			p.errMu.Unlock()
			errs.SetError(fmt.Errorf("parallel: task panicked: %v", r))
		}
	}()
	task()
}

// Submit enqueues task, blocking while the queue is full. It returns
// ctx.Err() if ctx ends first and ErrPoolClosed after Close.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.pending.Add(1)
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		p.pending.Done()
		return ctx.Err()
	}
}

// Wait blocks until every submitted task has finished and returns the first
// panic recovered from a task since the previous Wait, if any. A pool shared
// across runs therefore reports each panic to one run only.
func (p *Pool) Wait() error {
	p.pending.Wait()
	p.errMu.Lock()
	errs := p.errs
	p.errs = new(ErrorCollector)
	p.errMu.Unlock()
	return errs.Err()
}

// Close stops accepting tasks, lets the workers drain the queue and waits for
// them to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.workers.Wait()
}
