// Package config resolves the picalc configuration from command-line flags,
// PICALC_* environment variables, an optional YAML hosts file and defaults,
// in that order of priority.
package config

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PICALC_"

// Transport names.
const (
	TransportSSH  = "ssh"
	TransportNATS = "nats"
)

// DefaultTimeout bounds a whole run.
const DefaultTimeout = 10 * time.Minute

// AppConfig is the resolved configuration of one picalc invocation.
type AppConfig struct {
	Iterations uint64
	// Mode is one of the executor.Mode* names.
	Mode string

	// Legacy aliases, each selecting one mode.
	WithGIL     bool
	WithThread  bool
	WithProcess bool
	PoolSize    int

	Threads   int
	Processes int
	Segments  int
	SegSize   uint64

	Hosts        []string
	HostsFile    string
	Transport    string
	NATSURL      string
	NATSPrefix   string
	RemoteBinary string
	SSHOptions   []string

	// Start and End restrict the run to one segment (peer mode).
	Start, End uint64

	Timeout     time.Duration
	Quiet       bool
	Verbose     bool
	NoColor     bool
	OutputFile  string
	MetricsAddr string
	CacheRedis  string
	LogLevel    string

	peer bool
}

// Default returns the configuration used when nothing is specified.
func Default() AppConfig {
	threads, processes := DefaultWorkers()
	return AppConfig{
		Threads:    threads,
		Processes:  processes,
		Transport:  TransportSSH,
		SSHOptions: []string{"-o", "BatchMode=yes"},
		Timeout:    DefaultTimeout,
		LogLevel:   "warn",
	}
}

// RegisterFlags binds every root command flag to cfg.
func RegisterFlags(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.Uint64VarP(&cfg.Iterations, "iterations", "i", cfg.Iterations, "number of series terms")
	fs.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode,
		fmt.Sprintf("execution strategy (%s)", strings.Join(modes, ", ")))
	fs.BoolVar(&cfg.WithGIL, "with-gil", false, "shared-memory threads (same as --mode threaded)")
	fs.BoolVar(&cfg.WithThread, "with-thread", false, "producer/consumer threads (same as --mode queue-threaded)")
	fs.BoolVar(&cfg.WithProcess, "with-process", false, "producer/consumer processes (same as --mode queue-process)")
	fs.IntVar(&cfg.PoolSize, "pool", 0, "use a worker pool of this size (same as --mode pool)")
	fs.IntVarP(&cfg.Threads, "threads", "t", cfg.Threads, "number of threads")
	fs.IntVarP(&cfg.Processes, "processes", "p", cfg.Processes, "number of worker processes")
	fs.IntVarP(&cfg.Segments, "segments", "s", 0, "number of segments")
	fs.Uint64Var(&cfg.SegSize, "seg-size", 0, "size of each segment")

	fs.StringSliceVar(&cfg.Hosts, "hosts", nil, "hosts for distributed mode (comma separated)")
	fs.StringVar(&cfg.HostsFile, "hosts-file", "", "YAML file listing hosts and transport settings")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "distributed transport (ssh, nats)")
	fs.StringVar(&cfg.NATSURL, "nats-url", "", "NATS server URL for the nats transport")
	fs.StringVar(&cfg.NATSPrefix, "nats-prefix", "", "subject prefix for the nats transport")
	fs.StringVar(&cfg.RemoteBinary, "remote-binary", "", "picalc path on remote hosts (local hosts default to the running executable)")
	fs.StringArrayVar(&cfg.SSHOptions, "ssh-option", cfg.SSHOptions, "argument passed to ssh before the host (repeatable)")

	fs.Uint64Var(&cfg.Start, "start", 0, "first index of the segment to sum (peer mode)")
	fs.Uint64Var(&cfg.End, "end", 0, "end index (exclusive) of the segment to sum (peer mode)")

	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "maximum duration of the run")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "print only the estimate")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "print the execution configuration and system stats")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "disable colored output")
	fs.StringVarP(&cfg.OutputFile, "output", "o", "", "also write the report to this file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&cfg.CacheRedis, "cache-redis", "", "Redis address of the segment cache")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

var modes = []string{
	executor.ModeSequential, executor.ModeThreaded, executor.ModeQueueThreaded,
	executor.ModeQueueProcess, executor.ModePool, executor.ModeDistributed,
}

// Modes returns the accepted --mode values.
func Modes() []string { return slices.Clone(modes) }

// Resolve completes cfg after flag parsing: environment overrides and the
// hosts file fill what the flags left unset, then the mode is resolved and
// the result validated.
func Resolve(cfg AppConfig, fs *pflag.FlagSet) (AppConfig, error) {
	applyEnvOverrides(&cfg, fs)
	if cfg.HostsFile != "" {
		hf, err := LoadHostsFile(cfg.HostsFile)
		if err != nil {
			return cfg, err
		}
		hf.apply(&cfg, fs)
	}
	cfg.peer = isFlagSetAny(fs, "start", "end") || envSet("START") || envSet("END")

	mode, err := resolveMode(cfg, isFlagSet(fs, "mode") || envSet("MODE"))
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode
	if cfg.Mode == executor.ModeSequential && cfg.Iterations == 0 && cfg.Segments > 0 && cfg.SegSize > 0 {
		// Manual segments: the range is segments × seg-size.
		hi, lo := bits.Mul64(uint64(cfg.Segments), cfg.SegSize)
		if hi != 0 {
			return cfg, apperrors.NewInvalidPartition(0, "%d segments of %d iterations overflow the index range", cfg.Segments, cfg.SegSize)
		}
		cfg.Iterations = lo
		cfg.Segments = 0
	}
	if cfg.Mode == executor.ModePool && cfg.PoolSize == 0 {
		cfg.PoolSize = cfg.Processes
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolveMode(cfg AppConfig, explicit bool) (string, error) {
	var aliases []string
	if cfg.WithGIL {
		aliases = append(aliases, executor.ModeThreaded)
	}
	if cfg.WithThread {
		aliases = append(aliases, executor.ModeQueueThreaded)
	}
	if cfg.WithProcess {
		aliases = append(aliases, executor.ModeQueueProcess)
	}
	if cfg.PoolSize > 0 {
		aliases = append(aliases, executor.ModePool)
	}

	switch {
	case len(aliases) > 1:
		return "", apperrors.NewConfigError("conflicting mode flags: %s", strings.Join(aliases, ", "))
	case len(aliases) == 1 && explicit && cfg.Mode != aliases[0]:
		return "", apperrors.NewConfigError("--mode %s conflicts with the %s flag", cfg.Mode, aliases[0])
	case len(aliases) == 1:
		return aliases[0], nil
	case cfg.Mode != "":
		return cfg.Mode, nil
	case len(cfg.Hosts) > 0:
		return executor.ModeDistributed, nil
	}
	return executor.ModeSequential, nil
}

// PeerMode reports whether this invocation sums a single segment given by
// --start/--end and prints the raw partial sum.
func (c AppConfig) PeerMode() bool { return c.peer }

// WithPeerMode marks c as a peer invocation. It is meant for callers that
// build an AppConfig without flags.
func (c AppConfig) WithPeerMode() AppConfig {
	c.peer = true
	return c
}

// Workers returns the worker count of the resolved mode.
func (c AppConfig) Workers() int {
	switch c.Mode {
	case executor.ModeThreaded, executor.ModeQueueThreaded:
		return c.Threads
	case executor.ModeQueueProcess:
		return c.Processes
	case executor.ModePool:
		return c.PoolSize
	case executor.ModeDistributed:
		return len(c.Hosts)
	}
	return 1
}

// Validate checks the resolved configuration. Partition problems are
// reported as InvalidPartitionError, everything else as ConfigError.
func (c AppConfig) Validate() error {
	if c.peer {
		if c.End <= c.Start {
			return apperrors.NewInvalidPartition(0, "peer segment [%d, %d) is empty", c.Start, c.End)
		}
		return nil
	}

	if !slices.Contains(modes, c.Mode) {
		return apperrors.NewConfigError("unknown mode %q (available: %s)", c.Mode, strings.Join(modes, ", "))
	}
	if c.Iterations == 0 {
		return apperrors.NewConfigError("no computation selected: --iterations is required")
	}
	if c.Segments < 0 || c.Threads < 0 || c.Processes < 0 || c.PoolSize < 0 {
		return apperrors.NewInvalidPartition(c.Iterations, "counts must not be negative")
	}
	if c.Segments > 0 && c.SegSize > 0 {
		return apperrors.NewInvalidPartition(c.Iterations, "--segments and --seg-size are mutually exclusive")
	}
	if c.Segments > 0 && uint64(c.Segments) > c.Iterations {
		return apperrors.NewInvalidPartition(c.Iterations, "%d segments exceed the number of iterations", c.Segments)
	}
	if c.Mode != executor.ModeSequential && c.Workers() < 1 {
		return apperrors.NewInvalidPartition(c.Iterations, "%s needs at least 1 worker, got %d", c.Mode, c.Workers())
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("--timeout must be positive, got %s", c.Timeout)
	}

	if c.Mode == executor.ModeDistributed {
		if len(c.Hosts) == 0 {
			return apperrors.NewConfigError("%s mode needs --hosts or --hosts-file", executor.ModeDistributed)
		}
		switch c.Transport {
		case TransportSSH:
		case TransportNATS:
			if c.NATSURL == "" {
				return apperrors.NewConfigError("the nats transport needs --nats-url")
			}
		default:
			return apperrors.NewConfigError("unknown transport %q (available: ssh, nats)", c.Transport)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return apperrors.NewConfigError("unknown log level %q", c.LogLevel)
	}
	return nil
}
