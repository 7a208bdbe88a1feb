package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// rateSmoothing is the weight of the newest sample in the exponential
	// moving average of the completion rate.
	rateSmoothing = 0.3
	// maxETA caps the estimate shown for very slow runs.
	maxETA = 24 * time.Hour
)

// Progress tracks how many of a run's iterations have been summed and
// estimates the time remaining. Add is called from worker goroutines; the
// read methods from a display loop.
type Progress struct {
	mu        sync.Mutex
	total     uint64
	done      uint64
	segments  int
	startTime time.Time
	lastTime  time.Time
	lastFrac  float64
	// progressRate is the smoothed completion rate in fraction per second.
	progressRate float64
}

// NewProgress creates a tracker for a run of total iterations.
func NewProgress(total uint64) *Progress {
	now := time.Now()
	return &Progress{total: total, startTime: now, lastTime: now}
}

// Add records n more summed iterations (one segment) and returns the new
// completed fraction and ETA.
func (p *Progress) Add(n uint64) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.total, p.done+n)
	p.segments++

	frac := p.fraction()
	now := time.Now()
	if dt := now.Sub(p.lastTime).Seconds(); dt > 0 {
		instant := (frac - p.lastFrac) / dt
		if p.progressRate == 0 {
			p.progressRate = instant
		} else {
			p.progressRate = rateSmoothing*instant + (1-rateSmoothing)*p.progressRate
		}
		p.lastTime, p.lastFrac = now, frac
	}
	return frac, p.eta(frac)
}

// Fraction returns the completed fraction in [0, 1].
func (p *Progress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction()
}

// Segments returns the number of completed segments.
func (p *Progress) Segments() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segments
}

// ETA returns the estimated time remaining, or 0 while it is unknown.
func (p *Progress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eta(p.fraction())
}

// Elapsed returns the time since the tracker was created.
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (p *Progress) fraction() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}

func (p *Progress) eta(frac float64) time.Duration {
	if p.progressRate <= 0 || frac >= 1 {
		return 0
	}
	secs := (1 - frac) / p.progressRate
	if secs > maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(secs * float64(time.Second))
}

// FormatETA renders an ETA compactly ("45s", "2m30s", "1h15m").
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h, m := int(eta.Hours()), int(eta.Minutes())%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}

// ProgressBar renders progress (clamped to [0, 1]) as a bar of length cells.
func ProgressBar(progress float64, length int) string {
	progress = max(0, min(1, progress))
	filled := int(progress * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar] 42.0% ETA: 5s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), 100*max(0, min(1, progress)), FormatETA(eta))
}
