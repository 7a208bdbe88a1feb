package orchestration

import (
	"io"
	"sync"

	"github.com/agbru/picalc/internal/aggregate"
	"github.com/agbru/picalc/internal/format"
)

// ProgressReporter defines the interface for displaying run progress.
// This interface decouples the orchestration layer from the presentation layer:
// implementations handle the visual representation (spinners, bars) while the
// orchestration layer focuses on driving the executor.
type ProgressReporter interface {
	// DisplayProgress renders progress until done is closed. It is started
	// in its own goroutine and must call wg.Done before returning.
	DisplayProgress(wg *sync.WaitGroup, progress *format.Progress, done <-chan struct{}, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progress *format.Progress, done <-chan struct{}, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progress *format.Progress, done <-chan struct{}, out io.Writer) {
	f(wg, progress, done, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// Useful for quiet mode, peer invocations and tests.
type NullProgressReporter struct{}

// DisplayProgress waits for the run to finish without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, _ *format.Progress, done <-chan struct{}, _ io.Writer) {
	defer wg.Done()
	<-done
}

// ResultPresenter defines the interface for presenting a finished run.
type ResultPresenter interface {
	// PresentResult writes the report of a successful run.
	PresentResult(result aggregate.RunResult, mode string, out io.Writer)
	// PresentError writes the single error line of a failed run and returns
	// the process exit code.
	PresentError(err error, out io.Writer) int
}
