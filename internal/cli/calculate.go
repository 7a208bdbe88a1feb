package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/ui"
)

// PrintExecutionConfig displays the execution configuration of verbose mode:
// the iteration count, timeout, environment and the selected strategy.
func PrintExecutionConfig(cfg config.AppConfig, p plan.Plan, out io.Writer) {
	fmt.Fprintf(out, "%s\n", ui.Heading("Execution Configuration"))
	fmt.Fprintf(out, "Approximating %sπ%s over %s%s%s iterations with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), ui.ColorReset(),
		ui.ColorCyan(), format.FormatNumberString(fmt.Sprint(cfg.Iterations)), ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	PrintExecutionMode(cfg, p, out)
}

// PrintExecutionMode displays the strategy, its worker count and the plan.
func PrintExecutionMode(cfg config.AppConfig, p plan.Plan, out io.Writer) {
	var modeDesc string
	switch cfg.Mode {
	case executor.ModeSequential:
		modeDesc = "Sequential summation"
	case executor.ModeDistributed:
		modeDesc = fmt.Sprintf("Distributed over %s%s%s via %s", ui.ColorGreen(), strings.Join(cfg.Hosts, ", "), ui.ColorReset(), cfg.Transport)
	default:
		modeDesc = fmt.Sprintf("%s%s%s with %d workers", ui.ColorGreen(), cfg.Mode, ui.ColorReset(), cfg.Workers())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "Plan: %d segment(s).\n", p.Len())
	fmt.Fprintf(out, "\n%s\n", ui.Heading("Starting Execution"))
}
