package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess              = 0   // Indicates successful execution.
	ExitErrorGeneric         = 1   // Indicates a generic error (including worker failures).
	ExitErrorTimeout         = 2   // Indicates the operation timed out.
	ExitErrorConfig          = 4   // Indicates a configuration error.
	ExitErrorPartition       = 5   // Indicates an invalid segment/worker partition.
	ExitErrorConnection      = 6   // Indicates a remote host could not be reached.
	ExitErrorRemoteExecution = 7   // Indicates a peer instance exited with a failure.
	ExitErrorResultParse     = 8   // Indicates a peer produced unparsable output.
	ExitErrorIncompletePlan  = 9   // Indicates aggregation ran before every segment resolved.
	ExitErrorCanceled        = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InvalidPartitionError reports a segment count, segment size or worker count
// that cannot partition the requested index range. It is always raised before
// any work starts.
type InvalidPartitionError struct {
	// Iterations is the size of the index range being partitioned.
	Iterations uint64
	// Reason explains which constraint was violated.
	Reason string
}

// Error returns a formatted message describing the invalid partition.
func (e InvalidPartitionError) Error() string {
	if e.Iterations == 0 {
		return "invalid partition: " + e.Reason
	}
	return fmt.Sprintf("invalid partition of %d iterations: %s", e.Iterations, e.Reason)
}

// NewInvalidPartition creates an InvalidPartitionError with a formatted reason.
func NewInvalidPartition(iterations uint64, format string, a ...any) error {
	return InvalidPartitionError{Iterations: iterations, Reason: fmt.Sprintf(format, a...)}
}

// WorkerFailure reports a local worker that failed (returned an error or
// panicked) while summing a segment. The run it belongs to is aborted.
type WorkerFailure struct {
	// Start and End delimit the half-open segment being summed.
	Start, End uint64
	// Cause is the underlying error or recovered panic.
	Cause error
}

// Error returns a formatted message naming the failed segment.
func (e WorkerFailure) Error() string {
	return fmt.Sprintf("worker failed on segment [%d, %d): %v", e.Start, e.End, e.Cause)
}

// Unwrap returns the underlying cause.
func (e WorkerFailure) Unwrap() error { return e.Cause }

// ConnectionFailure reports a remote host that could not be reached or
// rejected authentication.
type ConnectionFailure struct {
	Host  string
	Cause error
}

func (e ConnectionFailure) Error() string {
	return fmt.Sprintf("connection to host %q failed: %v", e.Host, e.Cause)
}

func (e ConnectionFailure) Unwrap() error { return e.Cause }

// RemoteExecutionFailure reports a peer instance that ran but exited with a
// nonzero status. Stderr holds the peer's diagnostic output, if any.
type RemoteExecutionFailure struct {
	Host       string
	Start, End uint64
	ExitStatus int
	Stderr     string
	Cause      error
}

func (e RemoteExecutionFailure) Error() string {
	msg := fmt.Sprintf("peer on host %q failed on segment [%d, %d) with status %d", e.Host, e.Start, e.End, e.ExitStatus)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e RemoteExecutionFailure) Unwrap() error { return e.Cause }

// ResultParseFailure reports peer output that is not exactly one valid number.
type ResultParseFailure struct {
	Host   string
	Output string
	Cause  error
}

func (e ResultParseFailure) Error() string {
	return fmt.Sprintf("cannot parse result from host %q (output %q): %v", e.Host, e.Output, e.Cause)
}

func (e ResultParseFailure) Unwrap() error { return e.Cause }

// IncompletePlanError reports an aggregation attempted while planned segments
// had no result, or with results that do not belong to the plan.
type IncompletePlanError struct {
	// Missing is the number of planned segments without a result.
	Missing int
	// Unexpected is the number of results that were duplicated or unplanned.
	Unexpected int
}

func (e IncompletePlanError) Error() string {
	return fmt.Sprintf("incomplete plan: %d segment(s) missing, %d unexpected result(s)", e.Missing, e.Unexpected)
}

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error to the process exit status. Typed errors are
// matched first so that a boundary failure wrapped in context still reports
// its own status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		cfgErr       ConfigError
		partitionErr InvalidPartitionError
		connErr      ConnectionFailure
		remoteErr    RemoteExecutionFailure
		parseErr     ResultParseFailure
		planErr      IncompletePlanError
		timeoutErr   TimeoutError
		workerErr    WorkerFailure
	)
	switch {
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.As(err, &partitionErr):
		return ExitErrorPartition
	case errors.As(err, &connErr):
		return ExitErrorConnection
	case errors.As(err, &remoteErr):
		return ExitErrorRemoteExecution
	case errors.As(err, &parseErr):
		return ExitErrorResultParse
	case errors.As(err, &planErr):
		return ExitErrorIncompletePlan
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.As(err, &workerErr):
		return ExitErrorGeneric
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	}
	return ExitErrorGeneric
}
