package format

import (
	"strings"
	"testing"
	"time"
)

func TestNewProgress(t *testing.T) {
	t.Parallel()
	p := NewProgress(1000)
	if p.Fraction() != 0 || p.Segments() != 0 {
		t.Errorf("new tracker should be empty, got fraction %f, %d segments", p.Fraction(), p.Segments())
	}
	if p.ETA() != 0 {
		t.Errorf("initial ETA = %v, want 0", p.ETA())
	}
	if p.startTime.IsZero() {
		t.Error("startTime should not be zero")
	}
}

func TestProgress_Add(t *testing.T) {
	t.Parallel()
	p := NewProgress(1000)
	frac, eta := p.Add(250)
	if frac != 0.25 {
		t.Errorf("fraction = %f, want 0.25", frac)
	}
	if eta < 0 {
		t.Errorf("ETA should not be negative, got %v", eta)
	}
	p.Add(250)
	if p.Fraction() != 0.5 || p.Segments() != 2 {
		t.Errorf("got fraction %f, %d segments", p.Fraction(), p.Segments())
	}

	// Overshooting is clamped and completion has no ETA.
	frac, eta = p.Add(10_000)
	if frac != 1 || eta != 0 {
		t.Errorf("complete tracker: fraction %f, ETA %v", frac, eta)
	}
}

func TestProgress_ZeroTotal(t *testing.T) {
	t.Parallel()
	p := NewProgress(0)
	if frac, _ := p.Add(5); frac != 0 {
		t.Errorf("fraction = %f, want 0", frac)
	}
}

func TestProgress_ETA(t *testing.T) {
	t.Parallel()
	p := NewProgress(100)
	p.done = 50
	p.progressRate = 0.1 // 10% per second

	eta := p.ETA()
	if eta < 4*time.Second || eta > 6*time.Second {
		t.Errorf("ETA = %v, want about 5s", eta)
	}

	p.progressRate = 0.0000001
	if eta := p.ETA(); eta > maxETA {
		t.Errorf("ETA = %v, should be capped at %v", eta, maxETA)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		eta      time.Duration
		expected string
	}{
		{"Zero duration", 0, "calculating..."},
		{"Negative duration", -time.Second, "calculating..."},
		{"Less than a second", 500 * time.Millisecond, "< 1s"},
		{"Multiple seconds", 45 * time.Second, "45s"},
		{"One minute", time.Minute, "1m"},
		{"Minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"Hours and minutes", time.Hour + 15*time.Minute, "1h15m"},
		{"Hours only (no minutes)", 2 * time.Hour, "2h"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if result := FormatETA(tc.eta); result != tc.expected {
				t.Errorf("FormatETA(%v) = %q, want %q", tc.eta, result, tc.expected)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		expected string
	}{
		{0.0, 10, "░░░░░░░░░░"},
		{0.5, 10, "█████░░░░░"},
		{1.0, 10, "██████████"},
		{1.2, 10, "██████████"}, // Cap at 1.0
		{-0.1, 10, "░░░░░░░░░░"},  // Floor at 0.0
	}

	for _, tt := range tests {
		if got := ProgressBar(tt.progress, tt.length); got != tt.expected {
			t.Errorf("ProgressBar(%f, %d) = %s; want %s", tt.progress, tt.length, got, tt.expected)
		}
	}
}

func TestFormatProgressBarWithETA(t *testing.T) {
	t.Parallel()
	got := FormatProgressBarWithETA(0.5, 30*time.Second, 20)
	for _, want := range []string{"[", "]", " 50.0%", "ETA: 30s"} {
		if !strings.Contains(got, want) {
			t.Errorf("%q should contain %q", got, want)
		}
	}
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}

	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	t.Parallel()
	if got := FormatSeconds(1234567 * time.Microsecond); got != "1.2346s" {
		t.Errorf("FormatSeconds = %q, want 1.2346s", got)
	}
}

func TestFormatNumberString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"1", "1"},
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"-1234", "-1,234"},
	}

	for _, tt := range tests {
		if got := FormatNumberString(tt.input); got != tt.expected {
			t.Errorf("FormatNumberString(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}
