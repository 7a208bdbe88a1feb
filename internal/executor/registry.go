package executor

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// Strategy names accepted by --mode and reported in results.
const (
	ModeSequential    = "sequential"
	ModeThreaded      = "threaded"
	ModeQueueThreaded = "queue-threaded"
	ModeQueueProcess  = "queue-process"
	ModePool          = "pool"
	ModeDistributed   = "distributed"
)

// Config carries what a strategy factory needs to build an executor.
type Config struct {
	// Workers is the goroutine, process or pool size. Ignored by the
	// sequential strategy.
	Workers int
	// Command starts one worker process for queue-process. When its Path is
	// empty the running binary is re-executed.
	Command Command
	// Options are applied to every executor built from this config.
	Options []Option
}

// Factory builds an executor from cfg.
type Factory func(cfg Config) (Executor, error)

// Registry maps strategy names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry returns a registry holding every local strategy. The
// distributed strategy lives in the remote package and is registered by the
// application once its hosts are known.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ModeSequential, func(cfg Config) (Executor, error) {
		return NewSequential(cfg.Options...), nil
	})
	r.Register(ModeThreaded, func(cfg Config) (Executor, error) {
		return NewStatic(cfg.Workers, cfg.Options...)
	})
	r.Register(ModeQueueThreaded, func(cfg Config) (Executor, error) {
		return NewQueue(cfg.Workers, cfg.Options...)
	})
	r.Register(ModeQueueProcess, func(cfg Config) (Executor, error) {
		cmd := cfg.Command
		if cmd.Path == "" {
			self, err := SelfCommand()
			if err != nil {
				return nil, err
			}
			cmd.Path, cmd.Args = self.Path, self.Args
		}
		return NewProcess(cfg.Workers, cmd, cfg.Options...)
	})
	r.Register(ModePool, func(cfg Config) (Executor, error) {
		return NewPool(cfg.Workers, cfg.Options...)
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds the executor registered under name.
func (r *Registry) Get(name string, cfg Config) (Executor, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewConfigError("unknown mode %q (available: %v)", name, r.List())
	}
	e, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("building %s executor: %w", name, err)
	}
	return e, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLocal reports whether name is a strategy that runs on this machine only.
func IsLocal(name string) bool {
	return slices.Contains([]string{ModeSequential, ModeThreaded, ModeQueueThreaded, ModeQueueProcess, ModePool}, name)
}
