package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress renders a one-line bar for a run of fixed duration, such as a
// benchmark.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	total   time.Duration
	started time.Time
	ops     int64
	done    bool
}

// NewProgress creates a progress bar for a run lasting total.
func NewProgress(w io.Writer, total time.Duration) *Progress {
	return &Progress{w: w, total: total, started: time.Now()}
}

// Update redraws the bar with the operation count so far.
func (p *Progress) Update(ops int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.ops = ops
	p.render(time.Since(p.started))
}

// Finish draws the final bar and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.render(p.total)
	fmt.Fprintln(p.w)
}

func (p *Progress) render(elapsed time.Duration) {
	if p.total <= 0 {
		return
	}
	if elapsed > p.total {
		elapsed = p.total
	}

	const barWidth = 40
	frac := float64(elapsed) / float64(p.total)
	filled := int(barWidth * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var rate float64
	if secs := time.Since(p.started).Seconds(); secs > 0 {
		rate = float64(p.ops) / secs
	}
	fmt.Fprintf(p.w, "\r[%s] %3.0f%% %d ops %.0f ops/s", bar, frac*100, p.ops, rate)
}
