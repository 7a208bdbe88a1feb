package app

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/remote"
	"github.com/agbru/picalc/internal/server"
	"github.com/agbru/picalc/internal/sysmon"
)

// runCalculate plans the run, selects the executor, executes and reports.
func (a *Application) runCalculate(ctx context.Context, cfg config.AppConfig, logger logging.Logger) error {
	p, err := orchestration.BuildPlan(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		if _, err := server.New(cfg.MetricsAddr, m, logger).Start(ctx); err != nil {
			return apperrors.NewConfigError("%v", err)
		}
	}

	sum, segCache, closeCache := segmentSum(ctx, cfg.CacheRedis, logger)
	defer closeCache()

	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	if cfg.Quiet {
		reporter = orchestration.NullProgressReporter{}
	}
	run := orchestration.NewRun(cfg.Mode, p,
		orchestration.WithMetrics(m),
		orchestration.WithLogger(logger),
		orchestration.WithTimeout(cfg.Timeout),
		orchestration.WithProgressReporter(reporter, a.errOut),
	)

	registry := a.Registry
	if cfg.Mode == executor.ModeDistributed {
		transport, closeTransport, err := a.transport(cfg)
		if err != nil {
			return err
		}
		defer closeTransport()
		registry.Register(executor.ModeDistributed, func(executor.Config) (executor.Executor, error) {
			return remote.NewExecutor(cfg.Hosts, transport,
				remote.WithLogger(logger),
				remote.WithObserver(run.Observe))
		})
	}

	command, err := a.workerCommand(cfg)
	if err != nil {
		return err
	}
	exec, err := orchestration.SelectExecutor(registry, cfg, command,
		executor.WithSum(sum),
		executor.WithObserver(run.Observe),
		executor.WithLogger(logger))
	if err != nil {
		return err
	}

	if cfg.Verbose {
		cli.PrintExecutionConfig(cfg, p, a.errOut)
		cli.DisplaySystemStats(sysmon.Sample(), a.errOut)
	}

	res, err := run.Execute(ctx, exec)
	if segCache != nil {
		m.ObserveCache(segCache.Stats())
	}
	if err != nil {
		return err
	}
	return cli.DisplayResultWithConfig(a.out, res, cli.OutputConfig{
		OutputFile: cfg.OutputFile,
		Quiet:      cfg.Quiet,
		Mode:       cfg.Mode,
	})
}

// runPeer sums the single segment [Start, End) and prints the raw partial
// sum, the answer a distributed coordinator expects from a peer.
func (a *Application) runPeer(ctx context.Context, cfg config.AppConfig, logger logging.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sum, _, closeCache := segmentSum(ctx, cfg.CacheRedis, logger)
	defer closeCache()

	seg := plan.Segment{Start: cfg.Start, End: cfg.End}
	v, err := sum(ctx, seg)
	if err != nil {
		return apperrors.WorkerFailure{Start: seg.Start, End: seg.End, Cause: err}
	}
	_, err = fmt.Fprintln(a.out, remote.FormatResult(v))
	return err
}

// transport returns the distributed transport selected by cfg and a cleanup
// function.
func (a *Application) transport(cfg config.AppConfig) (remote.Transport, func(), error) {
	if a.Transport != nil {
		return a.Transport, func() {}, nil
	}
	switch cfg.Transport {
	case config.TransportNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("picalc"))
		if err != nil {
			return nil, nil, apperrors.ConnectionFailure{Host: cfg.NATSURL, Cause: err}
		}
		return &remote.NATSTransport{Conn: nc, Prefix: cfg.NATSPrefix}, nc.Close, nil
	default:
		return &remote.CommandTransport{
			Options: cfg.SSHOptions,
			Binary:  cfg.RemoteBinary,
		}, func() {}, nil
	}
}

// workerCommand returns the queue-process worker command. Workers started
// from the running binary share its segment cache.
func (a *Application) workerCommand(cfg config.AppConfig) (executor.Command, error) {
	if cfg.Mode != executor.ModeQueueProcess {
		return a.WorkerCommand, nil
	}
	if a.WorkerCommand.Path != "" {
		return a.WorkerCommand, nil
	}
	cmd, err := executor.SelfCommand()
	if err != nil {
		return executor.Command{}, err
	}
	if cfg.CacheRedis != "" {
		cmd.Args = append(cmd.Args, "--cache-redis", cfg.CacheRedis)
	}
	cmd.Args = append(cmd.Args, "--log-level", cfg.LogLevel)
	return cmd, nil
}

