// This file contains the environment variable overrides.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// isFlagSet reports whether a flag was explicitly set on the command line.
func isFlagSet(fs *pflag.FlagSet, name string) bool {
	if fs == nil {
		return false
	}
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// isFlagSetAny reports whether any of the named flags was explicitly set.
func isFlagSetAny(fs *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

func envSet(key string) bool {
	return os.Getenv(EnvPrefix+key) != ""
}

// envOverride declares a single environment variable override. envKey is
// the variable name without the PICALC_ prefix; flag is the long flag it
// stands in for.
type envOverride struct {
	envKey string
	flag   string
	apply  func(*AppConfig, string)
}

// setUint and setInt leave dst untouched when v does not parse.
func setUint(dst *uint64, v string) {
	if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
		*dst = parsed
	}
}

func setInt(dst *int, v string) {
	if parsed, err := strconv.Atoi(v); err == nil {
		*dst = parsed
	}
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"ITERATIONS", "iterations", func(c *AppConfig, v string) { setUint(&c.Iterations, v) }},
	{"THREADS", "threads", func(c *AppConfig, v string) { setInt(&c.Threads, v) }},
	{"PROCESSES", "processes", func(c *AppConfig, v string) { setInt(&c.Processes, v) }},
	{"POOL", "pool", func(c *AppConfig, v string) { setInt(&c.PoolSize, v) }},
	{"SEGMENTS", "segments", func(c *AppConfig, v string) { setInt(&c.Segments, v) }},
	{"SEG_SIZE", "seg-size", func(c *AppConfig, v string) { setUint(&c.SegSize, v) }},
	{"START", "start", func(c *AppConfig, v string) { setUint(&c.Start, v) }},
	{"END", "end", func(c *AppConfig, v string) { setUint(&c.End, v) }},

	// Duration overrides
	{"TIMEOUT", "timeout", func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	// String overrides
	{"MODE", "mode", func(c *AppConfig, v string) { c.Mode = v }},
	{"HOSTS", "hosts", func(c *AppConfig, v string) { c.Hosts = splitList(v) }},
	{"HOSTS_FILE", "hosts-file", func(c *AppConfig, v string) { c.HostsFile = v }},
	{"TRANSPORT", "transport", func(c *AppConfig, v string) { c.Transport = v }},
	{"NATS_URL", "nats-url", func(c *AppConfig, v string) { c.NATSURL = v }},
	{"NATS_PREFIX", "nats-prefix", func(c *AppConfig, v string) { c.NATSPrefix = v }},
	{"REMOTE_BINARY", "remote-binary", func(c *AppConfig, v string) { c.RemoteBinary = v }},
	{"OUTPUT", "output", func(c *AppConfig, v string) { c.OutputFile = v }},
	{"METRICS_ADDR", "metrics-addr", func(c *AppConfig, v string) { c.MetricsAddr = v }},
	{"CACHE_REDIS", "cache-redis", func(c *AppConfig, v string) { c.CacheRedis = v }},
	{"LOG_LEVEL", "log-level", func(c *AppConfig, v string) { c.LogLevel = strings.ToLower(v) }},

	// Boolean overrides
	{"VERBOSE", "verbose", func(c *AppConfig, v string) { c.Verbose = parseBoolEnv(v, c.Verbose) }},
	{"QUIET", "quiet", func(c *AppConfig, v string) { c.Quiet = parseBoolEnv(v, c.Quiet) }},
	{"NO_COLOR", "no-color", func(c *AppConfig, v string) { c.NoColor = parseBoolEnv(v, c.NoColor) }},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
func applyEnvOverrides(config *AppConfig, fs *pflag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSet(fs, o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
