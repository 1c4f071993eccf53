package layout

import (
	"math"
	"sync"
)

// widthThreshold is the smallest width change that counts as a resize.
const widthThreshold = 1.0

// Viewport tracks the container width and its derived column count.
type Viewport struct {
	opts Options

	mu      sync.RWMutex
	width   float64
	columns int
}

// NewViewport starts at the fallback width.
func NewViewport(opts Options) *Viewport {
	w := opts.FallbackWidth
	return &Viewport{opts: opts, width: w, columns: opts.Columns(w)}
}

// Resize records a new container width and reports whether the change is
// material: the column count changed or the width moved by at least one
// pixel. Non-positive widths fall back to the fallback width.
func (v *Viewport) Resize(width float64) bool {
	width = v.opts.EffectiveWidth(width)
	columns := v.opts.Columns(width)

	v.mu.Lock()
	defer v.mu.Unlock()

	if columns == v.columns && math.Abs(width-v.width) < widthThreshold {
		return false
	}
	v.width = width
	v.columns = columns
	return true
}

// State returns the current width and column count.
func (v *Viewport) State() (width float64, columns int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.columns
}

// Options returns the layout options the viewport derives columns with.
func (v *Viewport) Options() Options { return v.opts }
