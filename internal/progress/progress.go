// Package progress wraps github.com/schollz/progressbar/v3 with a single
// enabled/disabled switch: every method is a no-op on a disabled Bar, so
// callers never need an `if showProgress` guard of their own.
package progress

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Bar wraps progressbar with enabled/disabled handling. All methods are
// no-ops when disabled, including Add, so instrumentation calls can be
// sprinkled through hot paths without a cost when progress is off.
type Bar struct {
	bar   *progressbar.ProgressBar
	count int64 // atomic; items completed so far, tracked independently of the bar's own internal counter
}

// Spinner creates an indeterminate Bar, suitable for the enumeration phase
// where the total file count isn't known up front. Returns a no-op Bar if
// enabled is false.
func Spinner(enabled bool) *Bar {
	if !enabled {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(false),
	)}
}

// Determinate creates a Bar with a known total, suitable for the dedup
// dispatch phase where the number of size-runs is known before it starts.
// Returns a no-op Bar if enabled is false.
func Determinate(enabled bool, total int64) *Bar {
	if !enabled {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
	)}
}

// Add increments the completed-item count by delta and advances the
// underlying bar (or spinner) accordingly. Safe for concurrent use by
// multiple workers.
func (b *Bar) Add(delta int64) {
	n := atomic.AddInt64(&b.count, delta)
	if b.bar != nil {
		_ = b.bar.Set64(n)
	}
}

// Describe updates the progress line's label.
func (b *Bar) Describe(s fmt.Stringer) {
	if b.bar != nil {
		b.bar.Describe(s.String())
	}
}

// Finish completes the bar and prints a final summary line to stderr.
func (b *Bar) Finish(s fmt.Stringer) {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(os.Stderr, "done: "+s.String())
	}
}
