package app

import (
	"os"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/agbru/picalc/internal/calibration"
	"github.com/agbru/picalc/internal/cli"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/remote"
)

// newWorkerCommand serves queue-process segment requests on stdin/stdout.
func (a *Application) newWorkerCommand() *cobra.Command {
	var cacheAddr, logLevel string
	cmd := &cobra.Command{
		Use:    executor.WorkerSubcommand,
		Short:  "Sum segments read from stdin (started by the queue-process mode)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := a.setup(logLevel, true)
			sum, _, closeCache := segmentSum(cmd.Context(), cacheAddr, logger)
			defer closeCache()
			return executor.ServeWorker(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&cacheAddr, "cache-redis", "", "Redis address of the segment cache")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}

// newServeCommand runs a NATS peer answering segment requests for one host
// name until interrupted.
func (a *Application) newServeCommand() *cobra.Command {
	var url, name, prefix, cacheAddr, logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve segment requests over NATS for the distributed mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				return apperrors.NewConfigError("serve needs --nats-url")
			}
			if name == "" {
				host, err := os.Hostname()
				if err != nil {
					return apperrors.NewConfigError("serve needs --name: %v", err)
				}
				name = host
			}
			logger := a.setup(logLevel, true).With(logging.String("peer", name))
			sum, _, closeCache := segmentSum(cmd.Context(), cacheAddr, logger)
			defer closeCache()

			nc, err := nats.Connect(url, nats.Name("picalc-peer-"+name))
			if err != nil {
				return apperrors.ConnectionFailure{Host: url, Cause: err}
			}
			defer nc.Close()
			return remote.Serve(cmd.Context(), nc, prefix, name, sum, logger)
		},
	}
	cmd.Flags().StringVar(&url, "nats-url", os.Getenv("PICALC_NATS_URL"), "NATS server URL")
	cmd.Flags().StringVar(&name, "name", "", "host name this peer answers for (default: hostname)")
	cmd.Flags().StringVar(&prefix, "nats-prefix", "", "subject prefix (default "+remote.DefaultSubjectPrefix+")")
	cmd.Flags().StringVar(&cacheAddr, "cache-redis", "", "Redis address of the segment cache")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

// newCalibrateCommand benchmarks worker counts for queue-threaded.
func (a *Application) newCalibrateCommand() *cobra.Command {
	var (
		iterations uint64
		quick      bool
		noColor    bool
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Find the fastest --threads value on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := a.setup("warn", noColor)
			_, err := calibration.Run(cmd.Context(), calibration.Options{
				Iterations: iterations,
				Counts:     calibration.DefaultWorkerCounts(quick),
				Logger:     logger,
			}, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().Uint64VarP(&iterations, "iterations", "i", calibration.DefaultIterations, "iterations per benchmark")
	cmd.Flags().BoolVar(&quick, "quick", false, "try fewer worker counts")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func (a *Application) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			PrintVersion(cmd.OutOrStdout())
		},
	}
}

// newCompletionCommand replaces cobra's default completion command so that
// unsupported shells are reported as configuration errors.
func (a *Application) newCompletionCommand(root *cobra.Command) *cobra.Command {
	root.CompletionOptions.DisableDefaultCmd = true
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.GenerateCompletion(root, cmd.OutOrStdout(), args[0]); err != nil {
				return apperrors.NewConfigError("%v", err)
			}
			return nil
		},
	}
}
