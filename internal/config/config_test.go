package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
)

// parse mimics what the root command does: register, parse, resolve.
func parse(t *testing.T, args ...string) (AppConfig, error) {
	t.Helper()
	cfg := Default()
	fs := pflag.NewFlagSet("picalc", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return Resolve(cfg, fs)
}

func TestResolve_Modes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mode    string
		workers int
	}{
		{"default sequential", []string{"-i", "100"}, executor.ModeSequential, 1},
		{"explicit mode", []string{"-i", "100", "--mode", "queue-threaded", "-t", "3"}, executor.ModeQueueThreaded, 3},
		{"with-gil", []string{"-i", "100", "--with-gil", "-t", "5"}, executor.ModeThreaded, 5},
		{"with-thread", []string{"-i", "100", "--with-thread", "-t", "2"}, executor.ModeQueueThreaded, 2},
		{"with-process", []string{"-i", "100", "--with-process", "-p", "4"}, executor.ModeQueueProcess, 4},
		{"pool", []string{"-i", "100", "--pool", "6"}, executor.ModePool, 6},
		{"alias agrees with mode", []string{"-i", "100", "--pool", "2", "-m", "pool"}, executor.ModePool, 2},
		{"hosts imply distributed", []string{"-i", "100", "--hosts", "a,b"}, executor.ModeDistributed, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Mode != tt.mode {
				t.Errorf("Mode = %q, want %q", cfg.Mode, tt.mode)
			}
			if cfg.Workers() != tt.workers {
				t.Errorf("Workers() = %d, want %d", cfg.Workers(), tt.workers)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		partition bool
	}{
		{"no iterations", nil, false},
		{"two aliases", []string{"-i", "10", "--with-gil", "--with-thread"}, false},
		{"alias conflicts with mode", []string{"-i", "10", "--with-gil", "-m", "pool"}, false},
		{"unknown mode", []string{"-i", "10", "-m", "gpu"}, false},
		{"segments and size", []string{"-i", "10", "-s", "2", "--seg-size", "5"}, true},
		{"too many segments", []string{"-i", "10", "-s", "11"}, true},
		{"zero threads", []string{"-i", "10", "--with-gil", "-t", "0"}, true},
		{"distributed without hosts", []string{"-i", "10", "-m", "distributed"}, false},
		{"nats without url", []string{"-i", "10", "--hosts", "a", "--transport", "nats"}, false},
		{"unknown transport", []string{"-i", "10", "--hosts", "a", "--transport", "carrier-pigeon"}, false},
		{"bad log level", []string{"-i", "10", "--log-level", "loud"}, false},
		{"empty peer segment", []string{"--start", "5", "--end", "5"}, true},
		{"manual segments overflow", []string{"-s", "4", "--seg-size", "9223372036854775808"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			var partitionErr apperrors.InvalidPartitionError
			var cfgErr apperrors.ConfigError
			switch {
			case tt.partition && !errors.As(err, &partitionErr):
				t.Errorf("expected InvalidPartitionError, got %T: %v", err, err)
			case !tt.partition && !errors.As(err, &cfgErr):
				t.Errorf("expected ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestResolve_ManualSegments(t *testing.T) {
	cfg, err := parse(t, "-s", "4", "--seg-size", "250")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Iterations != 1000 || cfg.SegSize != 250 || cfg.Segments != 0 {
		t.Errorf("got iterations=%d seg-size=%d segments=%d", cfg.Iterations, cfg.SegSize, cfg.Segments)
	}
}

func TestResolve_PeerMode(t *testing.T) {
	cfg, err := parse(t, "--start", "100", "--end", "200")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.PeerMode() {
		t.Error("--start/--end should select peer mode")
	}
	cfg, err = parse(t, "-i", "10")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PeerMode() {
		t.Error("plain run should not be in peer mode")
	}
}

func TestResolve_EnvOverrides(t *testing.T) {
	t.Setenv("PICALC_ITERATIONS", "5000")
	t.Setenv("PICALC_MODE", "threaded")
	t.Setenv("PICALC_THREADS", "7")
	t.Setenv("PICALC_TIMEOUT", "90s")
	t.Setenv("PICALC_QUIET", "yes")
	t.Setenv("PICALC_HOSTS", "x, y,")

	cfg, err := parse(t, "-t", "3", "-m", "queue-threaded")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Iterations != 5000 {
		t.Errorf("Iterations = %d, want 5000 from env", cfg.Iterations)
	}
	if cfg.Threads != 3 {
		t.Errorf("Threads = %d, the flag must win over env", cfg.Threads)
	}
	if cfg.Mode != executor.ModeQueueThreaded {
		t.Errorf("Mode = %q, the flag must win over env", cfg.Mode)
	}
	if cfg.Timeout != 90*time.Second || !cfg.Quiet {
		t.Errorf("Timeout = %s, Quiet = %v", cfg.Timeout, cfg.Quiet)
	}
	if !reflect.DeepEqual(cfg.Hosts, []string{"x", "y"}) {
		t.Errorf("Hosts = %q", cfg.Hosts)
	}
}

func TestResolve_EnvInvalidValueIgnored(t *testing.T) {
	t.Setenv("PICALC_THREADS", "many")
	cfg, err := parse(t, "-i", "10")
	if err != nil {
		t.Fatal(err)
	}
	if want, _ := DefaultWorkers(); cfg.Threads != want {
		t.Errorf("Threads = %d, want default %d", cfg.Threads, want)
	}
}

func writeHostsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve_HostsFile(t *testing.T) {
	path := writeHostsFile(t, `
transport: nats
nats_url: nats://broker:4222
remote_binary: /opt/picalc
hosts:
  - node-a
  - node-b
  - node-c
`)
	cfg, err := parse(t, "-i", "999", "--hosts-file", path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != executor.ModeDistributed {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if !reflect.DeepEqual(cfg.Hosts, []string{"node-a", "node-b", "node-c"}) {
		t.Errorf("Hosts = %q", cfg.Hosts)
	}
	if cfg.Transport != TransportNATS || cfg.NATSURL != "nats://broker:4222" || cfg.RemoteBinary != "/opt/picalc" {
		t.Errorf("unexpected transport settings: %+v", cfg)
	}

	cfg, err = parse(t, "-i", "999", "--hosts-file", path, "--hosts", "only", "--transport", "ssh")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.Hosts, []string{"only"}) || cfg.Transport != TransportSSH {
		t.Errorf("flags must win over the hosts file, got hosts=%q transport=%q", cfg.Hosts, cfg.Transport)
	}
}

func TestLoadHostsFile_Errors(t *testing.T) {
	if _, err := LoadHostsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	path := writeHostsFile(t, "hosts: [a]\nhostz: [b]\n")
	var cfgErr apperrors.ConfigError
	if _, err := LoadHostsFile(path); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError for an unknown key, got %v", err)
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"no", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		if got := parseBoolEnv(tt.in, tt.def); got != tt.want {
			t.Errorf("parseBoolEnv(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestDefaultWorkers(t *testing.T) {
	threads, processes := DefaultWorkers()
	if threads < 1 || processes < 1 {
		t.Errorf("DefaultWorkers() = %d, %d", threads, processes)
	}
}
