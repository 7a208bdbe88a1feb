package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// HostsFile is the YAML document accepted by --hosts-file:
//
//	transport: ssh
//	remote_binary: /usr/local/bin/picalc
//	ssh_options: ["-o", "BatchMode=yes", "-i", "~/.ssh/cluster"]
//	hosts:
//	  - node-a
//	  - node-b
type HostsFile struct {
	Hosts        []string `yaml:"hosts"`
	Transport    string   `yaml:"transport"`
	RemoteBinary string   `yaml:"remote_binary"`
	SSHOptions   []string `yaml:"ssh_options"`
	NATSURL      string   `yaml:"nats_url"`
	NATSPrefix   string   `yaml:"nats_prefix"`
}

// LoadHostsFile reads and decodes path. Unknown keys are rejected so that
// typos do not silently fall back to defaults.
func LoadHostsFile(path string) (HostsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HostsFile{}, apperrors.NewConfigError("reading hosts file: %v", err)
	}
	var hf HostsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&hf); err != nil && !errors.Is(err, io.EOF) {
		return HostsFile{}, apperrors.NewConfigError("parsing hosts file %s: %v", path, err)
	}
	return hf, nil
}

// apply copies the file's settings into cfg for every setting that neither a
// flag nor an environment variable provided.
func (hf HostsFile) apply(cfg *AppConfig, fs *pflag.FlagSet) {
	unset := func(flag, envKey string) bool {
		return !isFlagSet(fs, flag) && !envSet(envKey)
	}
	if len(hf.Hosts) > 0 && unset("hosts", "HOSTS") {
		cfg.Hosts = hf.Hosts
	}
	if hf.Transport != "" && unset("transport", "TRANSPORT") {
		cfg.Transport = hf.Transport
	}
	if hf.RemoteBinary != "" && unset("remote-binary", "REMOTE_BINARY") {
		cfg.RemoteBinary = hf.RemoteBinary
	}
	if len(hf.SSHOptions) > 0 && !isFlagSet(fs, "ssh-option") {
		cfg.SSHOptions = hf.SSHOptions
	}
	if hf.NATSURL != "" && unset("nats-url", "NATS_URL") {
		cfg.NATSURL = hf.NATSURL
	}
	if hf.NATSPrefix != "" && unset("nats-prefix", "NATS_PREFIX") {
		cfg.NATSPrefix = hf.NATSPrefix
	}
}
