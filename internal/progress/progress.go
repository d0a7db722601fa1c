// Package progress renders the per-zoom terminal progress bar the CLI
// shows while the builder works through a zoom level's tiles.
package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progressbar/v3 bar scoped to one zoom level's tile count.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a bar labeled with the zoom level, writing to w (os.Stderr in
// the CLI). total is the number of tiles the current phase will visit.
func New(w io.Writer, zoom int, total int64) *Bar {
	return &Bar{
		bar: progressbar.NewOptions64(total,
			progressbar.OptionSetDescription(fmt.Sprintf("zoom %2d", zoom)),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		),
	}
}

// Add advances the bar by delta, safe for concurrent use by the builder's
// worker goroutines.
func (b *Bar) Add(delta int) {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Add(delta)
}

// Finish marks the bar as complete regardless of the current count.
func (b *Bar) Finish() {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}
