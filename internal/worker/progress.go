package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress draws a one-line progress bar for a batch of tiles.
type Progress struct {
	mu        sync.RWMutex
	output    io.Writer
	startTime time.Time
	total     int
	completed int
	failed    int
	enabled   bool
}

// NewProgress creates a tracker writing to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		output:    os.Stderr,
		startTime: time.Now(),
		total:     total,
		enabled:   enabled,
	}
}

// Update records the latest counts and redraws the bar.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed, p.total, p.failed = completed, total, failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns Update as a ProgressFunc.
func (p *Progress) Callback() ProgressFunc { return p.Update }

func (p *Progress) snapshot() (completed, total, failed int, elapsed time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed, p.total, p.failed, time.Since(p.startTime)
}

// Print writes the current bar, rate and ETA.
func (p *Progress) Print() {
	completed, total, failed, elapsed := p.snapshot()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed)/rate) * time.Second
	}

	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d tiles", bar, completed, total)
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	fmt.Fprintf(&b, " - %.1f tiles/sec", rate)
	switch {
	case completed >= total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case eta > 0:
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	// clear leftovers of a longer previous line
	b.WriteString("          ")

	fmt.Fprint(p.output, b.String())
}

// Done prints the final state followed by a newline.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.Print()
	fmt.Fprintln(p.output)
}

// Summary describes the finished batch in one line.
func (p *Progress) Summary() string {
	completed, total, failed, elapsed := p.snapshot()

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	return fmt.Sprintf("Generated %d/%d tiles (%d failed) in %s (%.1f tiles/sec)",
		completed-failed, total, failed, formatDuration(elapsed), rate)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
