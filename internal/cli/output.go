// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResult], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatReport], [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteResultToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agbru/picalc/internal/aggregate"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the report (empty for no file output).
	OutputFile string
	// Quiet prints the estimate alone.
	Quiet bool
	// Mode is the executor name recorded in the file header.
	Mode string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatReport returns the three report lines without colors:
//
//	π ≈ <estimate>
//	Error = <abs error>
//	Time elapsed: <seconds>s
func FormatReport(result aggregate.RunResult) string {
	return fmt.Sprintf("π ≈ %s\nError = %s\nTime elapsed: %s\n",
		formatFloat(result.Estimate), formatFloat(result.Error), format.FormatSeconds(result.Elapsed))
}

// FormatQuietResult returns the estimate alone, suitable for scripting.
func FormatQuietResult(result aggregate.RunResult) string {
	return formatFloat(result.Estimate)
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, result aggregate.RunResult) {
	fmt.Fprintln(out, FormatQuietResult(result))
}

// DisplayResult writes the report lines, colorized with the current theme.
func DisplayResult(out io.Writer, result aggregate.RunResult) {
	fmt.Fprintf(out, "π ≈ %s%s%s\n", ui.ColorBlue(), formatFloat(result.Estimate), ui.ColorReset())
	fmt.Fprintf(out, "Error = %s%s%s\n", ui.ColorYellow(), formatFloat(result.Error), ui.ColorReset())
	fmt.Fprintf(out, "Time elapsed: %s\n", format.FormatSeconds(result.Elapsed))
}

// WriteResultToFile writes the report, preceded by a commented header, to
// config.OutputFile. Missing parent directories are created.
func WriteResultToFile(result aggregate.RunResult, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.WrapError(err, "creating directory %s", dir)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return apperrors.WrapError(err, "creating output file")
	}
	defer file.Close()

	fmt.Fprintf(file, "# π Approximation Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Mode: %s\n", config.Mode)
	fmt.Fprintf(file, "# Iterations: %d\n", result.Iterations)
	fmt.Fprintf(file, "# Segments: %d\n", result.Segments)
	fmt.Fprintf(file, "# Duration: %s\n", format.FormatExecutionDuration(result.Elapsed))
	fmt.Fprintf(file, "\n")
	if _, err := io.WriteString(file, FormatReport(result)); err != nil {
		return apperrors.WrapError(err, "writing output file")
	}
	return file.Close()
}

// DisplayResultWithConfig displays a result with the given output configuration.
// This is a unified function that handles all output modes.
func DisplayResultWithConfig(out io.Writer, result aggregate.RunResult, config OutputConfig) error {
	CLIResultPresenter{Quiet: config.Quiet}.PresentResult(result, config.Mode, out)

	if config.OutputFile != "" {
		if err := WriteResultToFile(result, config); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "%s✓ Result saved to: %s%s%s\n",
				ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}
