package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return entry
}

func TestNewLogger_SegmentFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "executor")

	logger.Info("segment done",
		Uint64("start", 250),
		Uint64("end", 500),
		Float64("partial_sum", -0.0009),
		Int("worker", 3),
		Duration("elapsed", 1500*time.Millisecond),
		String("mode", "pool"),
	)

	entry := decode(t, buf.Bytes())
	want := map[string]any{
		"level":       "info",
		"component":   "executor",
		"message":     "segment done",
		"start":       float64(250),
		"end":         float64(500),
		"partial_sum": -0.0009,
		"worker":      float64(3),
		"mode":        "pool",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["elapsed"]; !ok {
		t.Error("duration field missing")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestZerologAdapter_Error(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "remote")

	logger.Error("peer failed", errors.New("exit status 2"), String("host", "node1"))

	entry := decode(t, buf.Bytes())
	if entry["level"] != "error" || entry["error"] != "exit status 2" || entry["host"] != "node1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestZerologAdapter_ErrField(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewLogger(&buf, "cache").Info("falling back", Err(errors.New("connection refused")))

	if entry := decode(t, buf.Bytes()); entry["error"] != "connection refused" {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestZerologAdapter_With(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "peer").With(String("peer", "node2"))

	logger.Debug("request", Uint64("start", 0))
	logger.Printf("served %d segment(s)", 4)
	logger.Println("stopping", "now")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if entry := decode(t, line); entry["peer"] != "node2" {
			t.Errorf("child field missing from %s", line)
		}
	}
	if !strings.Contains(string(lines[1]), "served 4 segment(s)") {
		t.Errorf("Printf message not formatted: %s", lines[1])
	}
	if entry := decode(t, lines[2]); entry["message"] != "stopping now" {
		t.Errorf("Println message = %v", entry["message"])
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	logger := Nop()
	logger.Info("ignored", Int("n", 1))
	logger.Error("ignored", errors.New("x"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.WarnLevel},
		{"loud", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
