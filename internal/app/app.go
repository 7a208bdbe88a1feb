// Package app wires the picalc command tree: configuration, logging, metrics,
// the segment cache, executor selection and the report.
package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agbru/picalc/internal/cache"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/remote"
	"github.com/agbru/picalc/internal/series"
	"github.com/agbru/picalc/internal/ui"
)

// Application represents the picalc application instance.
type Application struct {
	Registry *executor.Registry
	// WorkerCommand starts queue-process workers; empty re-executes the
	// running binary with the worker subcommand.
	WorkerCommand executor.Command
	// Transport replaces the transport built from --transport for the
	// distributed mode.
	Transport remote.Transport

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithRegistry sets a custom executor registry.
func WithRegistry(r *executor.Registry) AppOption {
	return func(a *Application) { a.Registry = r }
}

// WithWorkerCommand sets the command used for queue-process workers.
func WithWorkerCommand(c executor.Command) AppOption {
	return func(a *Application) { a.WorkerCommand = c }
}

// WithTransport sets the distributed transport.
func WithTransport(t remote.Transport) AppOption {
	return func(a *Application) { a.Transport = t }
}

// WithIO sets the standard streams. The report goes to out; progress,
// diagnostics and errors go to errOut.
func WithIO(in io.Reader, out, errOut io.Writer) AppOption {
	return func(a *Application) { a.in, a.out, a.errOut = in, out, errOut }
}

// New creates an Application bound to the process streams by default.
func New(opts ...AppOption) *Application {
	a := &Application{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	if a.Registry == nil {
		a.Registry = executor.NewDefaultRegistry()
	}
	return a
}

// Run executes the command line args (without the program name) and returns
// the process exit code. A failure prints exactly one error line.
func (a *Application) Run(ctx context.Context, args []string) int {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ui.InitTheme(!ui.IsTerminal(a.out))

	root := a.newRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return cli.CLIResultPresenter{}.PresentError(err, a.errOut)
	}
	return apperrors.ExitSuccess
}

func (a *Application) newRootCommand() *cobra.Command {
	cfg := config.Default()
	root := &cobra.Command{
		Use:   "picalc",
		Short: "Approximate π with the Leibniz series using interchangeable execution strategies",
		Long: `picalc sums the Leibniz series Σ (−1)^k / (2k+1) over [0, iterations) and
reports 4× the sum as an approximation of π. The index range is split into
segments that are summed sequentially, by goroutines, by child processes or by
peers on other hosts.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return apperrors.NewConfigError("unexpected arguments %v", args)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.Resolve(cfg, cmd.Flags())
			if err != nil {
				return err
			}
			logger := a.setup(resolved.LogLevel, resolved.NoColor)
			if resolved.PeerMode() {
				return a.runPeer(cmd.Context(), resolved, logger)
			}
			return a.runCalculate(cmd.Context(), resolved, logger)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.ConfigError{Message: err.Error()}
	})
	config.RegisterFlags(root.Flags(), &cfg)
	_ = cli.RegisterCompletions(root)

	root.AddCommand(
		a.newWorkerCommand(),
		a.newServeCommand(),
		a.newCalibrateCommand(),
		a.newVersionCommand(),
		a.newCompletionCommand(root),
	)
	return root
}

// setup applies the log level and color settings and returns the
// diagnostics logger. Colors are only used when stdout is a terminal, so
// piped or redirected reports stay parseable.
func (a *Application) setup(level string, noColor bool) *logging.ZerologAdapter {
	zerolog.SetGlobalLevel(logging.ParseLevel(level))
	ui.InitTheme(noColor || !ui.IsTerminal(a.out))
	return logging.NewLogger(a.errOut, "picalc")
}

// segmentSum returns series.Sum, wrapped by a Redis cache when addr is set.
// The returned cleanup closes the cache.
func segmentSum(ctx context.Context, addr string, logger logging.Logger) (series.SumFunc, *cache.SegmentCache, func()) {
	if addr == "" {
		return series.Sum, nil, func() {}
	}
	c := cache.New(addr, cache.WithLogger(logger))
	if err := c.Ping(ctx); err != nil {
		logger.Error("segment cache unavailable, summing without it", err, logging.String("addr", addr))
		_ = c.Close()
		return series.Sum, nil, func() {}
	}
	return c.Wrap(series.Sum), c, func() { _ = c.Close() }
}
