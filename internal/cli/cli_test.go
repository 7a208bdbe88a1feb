package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agbru/picalc/internal/aggregate"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/sysmon"
	"github.com/agbru/picalc/internal/ui"
)

func TestMain(m *testing.M) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	os.Exit(m.Run())
}

var sample = aggregate.RunResult{
	Iterations: 1000,
	Segments:   4,
	Sum:        0.7851481634599485,
	Estimate:   3.140592653839794,
	Error:      0.0009999997499991,
	Elapsed:    1234567 * time.Microsecond,
}

func TestFormatReport(t *testing.T) {
	t.Parallel()
	want := "π ≈ 3.140592653839794\nError = 0.0009999997499991\nTime elapsed: 1.2346s\n"
	if got := FormatReport(sample); got != want {
		t.Errorf("FormatReport() =\n%q\nwant\n%q", got, want)
	}
}

func TestDisplayResult_MatchesReportWithoutColors(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayResult(&buf, sample)
	if buf.String() != FormatReport(sample) {
		t.Errorf("uncolored display differs from the report:\n%s", buf.String())
	}
}

func TestDisplayQuietResult(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayQuietResult(&buf, sample)
	if buf.String() != "3.140592653839794\n" {
		t.Errorf("quiet output = %q", buf.String())
	}
}

func TestWriteResultToFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	testCases := []struct {
		name       string
		outputFile string
	}{
		{"Write report to file", filepath.Join(tmpDir, "result.txt")},
		{"Create nested directory", filepath.Join(tmpDir, "nested", "dir", "result.txt")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := WriteResultToFile(sample, OutputConfig{OutputFile: tc.outputFile, Mode: "pool"}); err != nil {
				t.Fatalf("WriteResultToFile: %v", err)
			}
			content, err := os.ReadFile(tc.outputFile)
			if err != nil {
				t.Fatalf("Failed to read output file: %v", err)
			}
			for _, want := range []string{"# Mode: pool", "# Iterations: 1000", "π ≈ 3.140592653839794", "Time elapsed: 1.2346s"} {
				if !strings.Contains(string(content), want) {
					t.Errorf("file should contain %q:\n%s", want, content)
				}
			}
		})
	}

	if err := WriteResultToFile(sample, OutputConfig{}); err != nil {
		t.Errorf("empty output path should be a no-op, got %v", err)
	}
}

func TestDisplayResultWithConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.txt")

	var quiet bytes.Buffer
	if err := DisplayResultWithConfig(&quiet, sample, OutputConfig{Quiet: true, OutputFile: path}); err != nil {
		t.Fatal(err)
	}
	if quiet.String() != "3.140592653839794\n" {
		t.Errorf("quiet mode should print the estimate only, got %q", quiet.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file not written: %v", err)
	}

	var full bytes.Buffer
	if err := DisplayResultWithConfig(&full, sample, OutputConfig{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(full.String(), "π ≈ ") {
		t.Errorf("unexpected report %q", full.String())
	}
}

func TestCLIResultPresenter_PresentError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	code := CLIResultPresenter{}.PresentError(apperrors.ConnectionFailure{Host: "h", Cause: errors.New("refused")}, &buf)
	if code != apperrors.ExitErrorConnection {
		t.Errorf("code = %d, want %d", code, apperrors.ExitErrorConnection)
	}
	if strings.Count(buf.String(), "\n") != 1 || !strings.Contains(buf.String(), "refused") {
		t.Errorf("expected one error line, got %q", buf.String())
	}
}

type mockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
}

func (m *mockSpinner) Start()                     { m.mu.Lock(); m.started = true; m.mu.Unlock() }
func (m *mockSpinner) Stop()                      { m.mu.Lock(); m.stopped = true; m.mu.Unlock() }
func (m *mockSpinner) UpdateSuffix(suffix string) { m.mu.Lock(); m.suffix = suffix; m.mu.Unlock() }

// Replaces the package-level spinner factory; not parallel.
func TestDisplayProgress(t *testing.T) {
	mock := &mockSpinner{}
	orig := newSpinner
	newSpinner = func(io.Writer) Spinner { return mock }
	defer func() { newSpinner = orig }()

	progress := format.NewProgress(100)
	progress.Add(50)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progress, done, io.Discard)
	close(done)
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.started || !mock.stopped {
		t.Error("spinner should be started and stopped")
	}
	if !strings.Contains(mock.suffix, "50.0%") {
		t.Errorf("suffix %q should show the progress", mock.suffix)
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	t.Parallel()
	cfg := config.AppConfig{Iterations: 1_000_000, Mode: "pool", PoolSize: 4, Timeout: time.Minute}
	p, _ := plan.ByCount(cfg.Iterations, 4)
	var buf bytes.Buffer
	PrintExecutionConfig(cfg, p, &buf)
	for _, want := range []string{"Execution Configuration", "1,000,000", "pool with 4 workers", "Plan: 4 segment(s)"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("banner should contain %q:\n%s", want, buf.String())
		}
	}
}

func TestDisplaySystemStats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplaySystemStats(sysmon.Stats{LogicalCPUs: 8, PhysicalCPUs: 4, HeapAlloc: 1234567, Goroutines: 3}, &buf)
	for _, want := range []string{"8 logical", "1,234,567 bytes", "Goroutines: 3"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("stats should contain %q:\n%s", want, buf.String())
		}
	}
}

func newCompletionCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "picalc", Run: func(*cobra.Command, []string) {}}
	cfg := config.Default()
	fs := pflag.NewFlagSet("picalc", pflag.ContinueOnError)
	config.RegisterFlags(fs, &cfg)
	cmd.Flags().AddFlagSet(fs)
	if err := RegisterCompletions(cmd); err != nil {
		t.Fatalf("RegisterCompletions: %v", err)
	}
	return cmd
}

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := GenerateCompletion(newCompletionCommand(t), &buf, shell); err != nil {
				t.Fatalf("GenerateCompletion(%s): %v", shell, err)
			}
			if !strings.Contains(buf.String(), "picalc") {
				t.Errorf("%s script should mention the program name", shell)
			}
		})
	}

	if err := GenerateCompletion(newCompletionCommand(t), io.Discard, "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}
