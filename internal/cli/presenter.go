package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/agbru/picalc/internal/aggregate"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/sysmon"
	"github.com/agbru/picalc/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display during a run.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for the ongoing run.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progress *format.Progress, done <-chan struct{}, out io.Writer) {
	DisplayProgress(wg, progress, done, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for CLI output.
// Quiet selects the single-line report used by scripts.
type CLIResultPresenter struct {
	Quiet bool
}

var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentResult writes the run report.
func (p CLIResultPresenter) PresentResult(result aggregate.RunResult, _ string, out io.Writer) {
	if p.Quiet {
		DisplayQuietResult(out, result)
		return
	}
	DisplayResult(out, result)
}

// PresentError writes one error line and returns the exit code for err.
func (CLIResultPresenter) PresentError(err error, out io.Writer) int {
	code := apperrors.ExitCode(err)
	if code == apperrors.ExitSuccess {
		return code
	}
	fmt.Fprintf(out, "%sError:%s %v\n", ui.ColorRed(), ui.ColorReset(), err)
	return code
}

// DisplaySystemStats shows the machine and runtime snapshot of verbose mode.
func DisplaySystemStats(s sysmon.Stats, out io.Writer) {
	fmt.Fprintf(out, "\n%s\n", ui.Heading("System"))
	fmt.Fprintf(out, "  CPU:        %s%.1f%%%s (%d logical, %d physical)\n",
		ui.ColorCyan(), s.CPUPercent, ui.ColorReset(), s.LogicalCPUs, s.PhysicalCPUs)
	fmt.Fprintf(out, "  Memory:     %s%.1f%%%s used\n", ui.ColorCyan(), s.MemPercent, ui.ColorReset())
	fmt.Fprintf(out, "  Heap:       %s bytes\n", format.FormatNumberString(fmt.Sprint(s.HeapAlloc)))
	fmt.Fprintf(out, "  GC cycles:  %d\n", s.NumGC)
	fmt.Fprintf(out, "  Goroutines: %d\n", s.Goroutines)
}
