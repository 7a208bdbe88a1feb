package orchestration

import (
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/plan"
)

// BuildPlan partitions cfg.Iterations. An explicit segment count or segment
// size wins; otherwise the range is chunked by the worker count of the
// selected mode, so sequential gets a single segment and a distributed run
// gets exactly one segment per host.
func BuildPlan(cfg config.AppConfig) (plan.Plan, error) {
	switch {
	case cfg.Segments > 0:
		return plan.ByCount(cfg.Iterations, cfg.Segments)
	case cfg.SegSize > 0:
		return plan.BySize(cfg.Iterations, cfg.SegSize)
	case cfg.Mode == executor.ModeDistributed:
		return plan.ByCount(cfg.Iterations, len(cfg.Hosts))
	}
	return plan.ForWorkers(cfg.Iterations, max(1, cfg.Workers()))
}

// SelectExecutor builds the executor registered under cfg.Mode.
func SelectExecutor(reg *executor.Registry, cfg config.AppConfig, command executor.Command, opts ...executor.Option) (executor.Executor, error) {
	return reg.Get(cfg.Mode, executor.Config{
		Workers: cfg.Workers(),
		Command: command,
		Options: opts,
	})
}
