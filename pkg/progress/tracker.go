// Package progress shows transfer progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ruslano69/easyjob/pkg/etl"
)

// Tracker renders engine progress as a progress bar (spinner when the total is unknown).
// It implements etl.Observer.
type Tracker struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	op        etl.Operation
	current   atomic.Int64
	chunks    atomic.Int64
	startTime time.Time
}

// New creates a tracker writing to out (os.Stderr when nil).
func New(out io.Writer) *Tracker {
	if out == nil {
		out = os.Stderr
	}
	return &Tracker{out: out}
}

// Start creates the bar. A negative total renders a spinner.
func (t *Tracker) Start(op etl.Operation, total int64) {
	t.op = op
	t.startTime = time.Now()
	t.current.Store(0)
	t.chunks.Store(0)

	unit := "rows"
	if op == etl.OpScript {
		unit = "statements"
	}

	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(string(op)),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Advance moves the bar to the absolute row count reported by the engine.
func (t *Tracker) Advance(p etl.Progress) {
	t.current.Store(p.RowsProcessed)
	t.chunks.Store(int64(p.ChunkIndex))
	if t.bar != nil {
		t.bar.Set64(p.RowsProcessed)
	}
}

// Current returns the last reported row count.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Finish closes the bar and prints a one-line summary.
func (t *Tracker) Finish() {
	if t.bar == nil {
		return
	}
	t.bar.Finish()
	t.bar = nil

	elapsed := time.Since(t.startTime)
	n := t.current.Load()
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(n) / s
	}
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s: %d rows in %d chunks, %s (%.0f rows/sec)\n",
		t.op, n, t.chunks.Load(), elapsed.Round(time.Millisecond), rate)
}
