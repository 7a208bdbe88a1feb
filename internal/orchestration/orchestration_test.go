package orchestration

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/plan"
)

// stubExecutor returns canned results or blocks until cancellation.
type stubExecutor struct {
	results []plan.PartialResult
	block   bool
}

func (s stubExecutor) Name() string { return "stub" }

func (s stubExecutor) Execute(ctx context.Context, _ plan.Plan) ([]plan.PartialResult, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.results, nil
}

func TestBuildPlan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cfg      config.AppConfig
		segments int
	}{
		{"explicit count", config.AppConfig{Iterations: 100, Mode: executor.ModeThreaded, Threads: 8, Segments: 3}, 3},
		{"explicit size", config.AppConfig{Iterations: 100, Mode: executor.ModeSequential, SegSize: 30}, 4},
		{"sequential is one segment", config.AppConfig{Iterations: 100, Mode: executor.ModeSequential}, 1},
		{"chunked by threads", config.AppConfig{Iterations: 100, Mode: executor.ModeQueueThreaded, Threads: 4}, 4},
		{"remainder segment", config.AppConfig{Iterations: 10, Mode: executor.ModePool, PoolSize: 3}, 4},
		{"one per host", config.AppConfig{Iterations: 10, Mode: executor.ModeDistributed, Hosts: []string{"a", "b"}}, 2},
		{"uneven hosts", config.AppConfig{Iterations: 10, Mode: executor.ModeDistributed, Hosts: []string{"a", "b", "c"}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := BuildPlan(tt.cfg)
			if err != nil {
				t.Fatalf("BuildPlan: %v", err)
			}
			if p.Len() != tt.segments {
				t.Errorf("got %d segments, want %d", p.Len(), tt.segments)
			}
			if err := p.Verify(); err != nil {
				t.Errorf("plan does not cover the range: %v", err)
			}
		})
	}
}

func TestBuildPlan_Invalid(t *testing.T) {
	t.Parallel()
	_, err := BuildPlan(config.AppConfig{Iterations: 3, Mode: executor.ModeSequential, Segments: 4})
	var partitionErr apperrors.InvalidPartitionError
	if !errors.As(err, &partitionErr) {
		t.Fatalf("expected InvalidPartitionError, got %v", err)
	}
}

func TestSelectExecutor(t *testing.T) {
	t.Parallel()
	reg := executor.NewDefaultRegistry()

	e, err := SelectExecutor(reg, config.AppConfig{Mode: executor.ModePool, PoolSize: 2}, executor.Command{})
	if err != nil {
		t.Fatalf("SelectExecutor: %v", err)
	}
	if e.Name() != executor.ModePool {
		t.Errorf("Name() = %q, want %q", e.Name(), executor.ModePool)
	}

	_, err = SelectExecutor(reg, config.AppConfig{Mode: executor.ModeDistributed, Hosts: []string{"a"}}, executor.Command{})
	var cfgErr apperrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("unregistered mode should be a ConfigError, got %v", err)
	}
}

func TestRun_Execute(t *testing.T) {
	t.Parallel()
	p, err := plan.ByCount(100_000, 8)
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	run := NewRun(executor.ModeQueueThreaded, p, WithMetrics(m), WithTimeout(time.Minute))
	exec, err := executor.NewQueue(4, executor.WithObserver(run.Observe))
	if err != nil {
		t.Fatal(err)
	}

	res, err := run.Execute(context.Background(), exec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if math.Abs(res.Estimate-math.Pi) > 1e-4 {
		t.Errorf("estimate %v too far from π", res.Estimate)
	}
	if res.Segments != 8 {
		t.Errorf("Segments = %d, want 8", res.Segments)
	}
	if got := run.Progress().Fraction(); got != 1 {
		t.Errorf("progress = %f, want 1", got)
	}
	if got := run.Progress().Segments(); got != 8 {
		t.Errorf("progress saw %d segments, want 8", got)
	}
	if n, err := testutil.GatherAndCount(m.Registry(), "picalc_runs_total"); err != nil || n != 1 {
		t.Errorf("picalc_runs_total series = %d (%v), want 1", n, err)
	}
	if run.ID == "" {
		t.Error("run should carry an id")
	}
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()
	p, _ := plan.ByCount(10, 1)
	run := NewRun("stub", p, WithTimeout(20*time.Millisecond))

	_, err := run.Execute(context.Background(), stubExecutor{block: true})
	var timeoutErr apperrors.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Operation != "stub" || timeoutErr.Limit != 20*time.Millisecond {
		t.Errorf("unexpected timeout error %+v", timeoutErr)
	}
}

func TestRun_ParentCanceled(t *testing.T) {
	t.Parallel()
	p, _ := plan.ByCount(10, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRun("stub", p, WithTimeout(time.Minute)).Execute(ctx, stubExecutor{block: true})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if apperrors.ExitCode(err) != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", apperrors.ExitCode(err), apperrors.ExitErrorCanceled)
	}
}

func TestRun_IncompletePlan(t *testing.T) {
	t.Parallel()
	p, _ := plan.ByCount(10, 2)
	m := metrics.New()
	stub := stubExecutor{results: []plan.PartialResult{{Segment: p.Segments[0], Value: 1}}}

	_, err := NewRun("stub", p, WithMetrics(m)).Execute(context.Background(), stub)
	var planErr apperrors.IncompletePlanError
	if !errors.As(err, &planErr) || planErr.Missing != 1 {
		t.Fatalf("expected one missing segment, got %v", err)
	}
	if n, _ := testutil.GatherAndCount(m.Registry(), "picalc_runs_total"); n != 1 {
		t.Errorf("failed run should be counted once, got %d series", n)
	}
}

func TestRun_ReporterLifecycle(t *testing.T) {
	t.Parallel()
	p, _ := plan.ByCount(1000, 4)
	var started, stopped atomic.Bool
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, progress *format.Progress, done <-chan struct{}, _ io.Writer) {
		defer wg.Done()
		if progress == nil {
			t.Error("reporter got a nil progress tracker")
		}
		started.Store(true)
		<-done
		stopped.Store(true)
	})

	run := NewRun(executor.ModeSequential, p, WithProgressReporter(reporter, io.Discard))
	if _, err := run.Execute(context.Background(), executor.NewSequential(executor.WithObserver(run.Observe))); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !started.Load() || !stopped.Load() {
		t.Error("reporter should run for the whole execution and stop before Execute returns")
	}
}

func TestNullProgressReporter(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go NullProgressReporter{}.DisplayProgress(&wg, format.NewProgress(1), done, io.Discard)
	close(done)
	wg.Wait()
}
