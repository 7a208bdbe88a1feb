package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
)

// WorkerSubcommand is the argument that turns the picalc binary into a
// queue-process worker.
const WorkerSubcommand = "worker"

// Command describes how to start one worker process.
type Command struct {
	Path string
	Args []string
	// Env is appended to the parent's environment.
	Env []string
}

// SelfCommand returns the command that re-executes the running binary as a
// worker process.
func SelfCommand() (Command, error) {
	exe, err := os.Executable()
	if err != nil {
		return Command{}, fmt.Errorf("locating executable: %w", err)
	}
	return Command{Path: exe, Args: []string{WorkerSubcommand}}, nil
}

// Process is the producer/consumer strategy served by child processes. Each
// consumer goroutine owns one long-lived worker process and proxies the
// segments it takes from the shared queue to that process over stdin/stdout
// (see ServeWorker). Summing happens in the children, so WithSum does not
// apply.
type Process struct {
	workers int
	command Command
	opts    options
}

// NewProcess creates a process-backed producer/consumer executor running
// workers copies of command.
func NewProcess(workers int, command Command, opts ...Option) (*Process, error) {
	if err := checkWorkers(ModeQueueProcess, workers); err != nil {
		return nil, err
	}
	if command.Path == "" {
		return nil, apperrors.NewConfigError("%s: worker command is empty", ModeQueueProcess)
	}
	return &Process{workers: workers, command: command, opts: newOptions(opts)}, nil
}

func (p *Process) Name() string { return ModeQueueProcess }

// Workers returns the configured process count.
func (p *Process) Workers() int { return p.workers }

func (p *Process) Execute(ctx context.Context, pl plan.Plan) ([]plan.PartialResult, error) {
	return runQueue(ctx, p.workers, producePlan(pl), p.consume)
}

func (p *Process) consume(ctx context.Context, id int, work <-chan plan.Segment, results chan<- plan.PartialResult) error {
	cmd := exec.CommandContext(ctx, p.command.Path, p.command.Args...)
	cmd.Env = append(os.Environ(), p.command.Env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker process %d: %w", id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker process %d: %w", id, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting worker process %d: %w", id, err)
	}
	p.opts.logger.Debug("worker process started", logging.Int("worker", id), logging.Int("pid", cmd.Process.Pid))

	serveErr := p.serve(ctx, id, json.NewEncoder(stdin), json.NewDecoder(stdout), work, results)
	_ = stdin.Close()
	waitErr := cmd.Wait()

	if serveErr != nil {
		var wf apperrors.WorkerFailure
		if errors.As(serveErr, &wf) && stderr.Len() > 0 {
			wf.Cause = fmt.Errorf("%w (stderr: %s)", wf.Cause, strings.TrimSpace(stderr.String()))
			return wf
		}
		return serveErr
	}
	if waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("worker process %d exited: %w", id, waitErr)
	}
	return nil
}

func (p *Process) serve(ctx context.Context, id int, enc *json.Encoder, dec *json.Decoder, work <-chan plan.Segment, results chan<- plan.PartialResult) error {
	fail := func(seg plan.Segment, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.WorkerFailure{Start: seg.Start, End: seg.End, Cause: err}
	}

	for seg := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := enc.Encode(seg); err != nil {
			return fail(seg, fmt.Errorf("sending segment to worker process %d: %w", id, err))
		}
		var resp workerResponse
		if err := dec.Decode(&resp); err != nil {
			return fail(seg, fmt.Errorf("reading result from worker process %d: %w", id, err))
		}
		if resp.Error != "" {
			return fail(seg, errors.New(resp.Error))
		}
		if resp.Segment != seg {
			return fail(seg, fmt.Errorf("worker process %d answered for segment %s", id, resp.Segment))
		}

		res := plan.PartialResult{Segment: seg, Value: resp.Value}
		if p.opts.observer != nil {
			p.opts.observer(res, time.Since(start))
		}
		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
