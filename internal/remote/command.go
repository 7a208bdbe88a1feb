package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	apperrors "github.com/agbru/picalc/internal/errors"
)

const (
	// DefaultSSH is the ssh client used when CommandTransport.SSH is empty.
	DefaultSSH = "ssh"
	// DefaultBinary is the peer program name on remote hosts when
	// CommandTransport.Binary is empty. It must be on the remote PATH. Local
	// hosts run the current executable instead.
	DefaultBinary = "picalc"

	// sshConnectionStatus is the status ssh exits with when it cannot reach
	// or authenticate to the host, as opposed to relaying the remote
	// command's own status.
	sshConnectionStatus = 255
)

// CommandTransport runs the peer as a command. Remote hosts are reached with
// `ssh [Options] host -- Binary --start S --end E`; the host names "local"
// and "localhost" run Binary directly.
type CommandTransport struct {
	SSH     string
	Options []string
	Binary  string
	// Env is appended to the environment of the started command.
	Env []string
}

// IsLocalHost reports whether host designates this machine.
func IsLocalHost(host string) bool {
	return host == "local" || host == "localhost"
}

// defaultBinary is the current executable for local hosts, so a local peer
// is the same program as the coordinator, and DefaultBinary elsewhere.
func defaultBinary(host string) string {
	if IsLocalHost(host) {
		if self, err := os.Executable(); err == nil {
			return self
		}
	}
	return DefaultBinary
}

// Command returns the program and arguments used to reach target.
func (t *CommandTransport) Command(target HostTarget) (string, []string) {
	binary := t.Binary
	if binary == "" {
		binary = defaultBinary(target.Name)
	}
	peer := []string{
		binary,
		"--start", strconv.FormatUint(target.Segment.Start, 10),
		"--end", strconv.FormatUint(target.Segment.End, 10),
	}
	if IsLocalHost(target.Name) {
		return peer[0], peer[1:]
	}

	ssh := t.SSH
	if ssh == "" {
		ssh = DefaultSSH
	}
	args := make([]string, 0, len(t.Options)+len(peer)+2)
	args = append(args, t.Options...)
	args = append(args, target.Name, "--")
	args = append(args, peer...)
	return ssh, args
}

func (t *CommandTransport) Invoke(ctx context.Context, target HostTarget) (float64, error) {
	name, args := t.Command(target)
	cmd := exec.CommandContext(ctx, name, args...)
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		diag := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, apperrors.ConnectionFailure{Host: target.Name, Cause: err}
		}
		if exitErr.ExitCode() == sshConnectionStatus && !IsLocalHost(target.Name) {
			return 0, apperrors.ConnectionFailure{Host: target.Name, Cause: fmt.Errorf("%s: %s", err, diag)}
		}
		return 0, apperrors.RemoteExecutionFailure{
			Host:       target.Name,
			Start:      target.Segment.Start,
			End:        target.Segment.End,
			ExitStatus: exitErr.ExitCode(),
			Stderr:     diag,
			Cause:      err,
		}
	}
	return ParseResult(target.Name, stdout.String())
}
