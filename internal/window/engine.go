// Package window derives the visible sub-slice and its min/max statistics
// from the loaded price series and a user-adjustable brush window.
package window

import (
	"tickerscope/internal/domain"
)

// Stats holds the running min/max of close over the visible slice.
type Stats struct {
	Min float64
	Max float64
}

// Engine owns the loaded series and the brush window over it. All
// derivations are pure functions of (series, window); stats are memoized
// per (window, series generation) since the window moves on every
// drag-frame. Engine is not safe for concurrent use; the controller
// serializes access.
type Engine struct {
	series []domain.PricePoint
	start  int
	end    int

	memo struct {
		valid  bool
		lo, hi int
		stats  *Stats
	}
}

// New returns an Engine with an empty series and a zero window.
func New() *Engine {
	return &Engine{}
}

// Replace swaps in a new series wholesale and resets the window to span it:
// [0, len-1], or [0, 0] for an empty series. The previous window value is
// irrelevant by contract.
func (e *Engine) Replace(series []domain.PricePoint) {
	e.series = series
	e.start = 0
	e.end = len(series) - 1
	if e.end < 0 {
		e.end = 0
	}
	e.memo.valid = false
}

// Series returns the full loaded series.
func (e *Engine) Series() []domain.PricePoint { return e.series }

// Len returns the length of the loaded series.
func (e *Engine) Len() int { return len(e.series) }

// SetWindow stores the brush window, clamping both indices into
// [0, len-1] ([0, 0] when the series is empty). The pair is stored
// unordered; a user may drag the window backwards. Ordering is normalized
// at read time.
func (e *Engine) SetWindow(start, end int) {
	e.start = e.clamp(start)
	e.end = e.clamp(end)
	e.memo.valid = false
}

// Window returns the stored (start, end) pair as written, after clamping.
func (e *Engine) Window() (start, end int) { return e.start, e.end }

// Bounds returns the normalized low/high window indices.
func (e *Engine) Bounds() (lo, hi int) {
	lo, hi = e.start, e.end
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// VisibleSlice returns series[lo..hi] inclusive, or nil when the series is
// empty. The result aliases the underlying series; callers must not mutate.
func (e *Engine) VisibleSlice() []domain.PricePoint {
	if len(e.series) == 0 {
		return nil
	}
	lo, hi := e.Bounds()
	return e.series[lo : hi+1]
}

// StatsView returns the min/max of close over the visible slice, or nil
// when the slice is empty. A single linear scan, O(window size).
func (e *Engine) StatsView() *Stats {
	lo, hi := e.Bounds()
	if e.memo.valid && e.memo.lo == lo && e.memo.hi == hi {
		return e.memo.stats
	}

	var stats *Stats
	if len(e.series) > 0 {
		s := Stats{Min: e.series[lo].Close, Max: e.series[lo].Close}
		for i := lo + 1; i <= hi; i++ {
			c := e.series[i].Close
			if c < s.Min {
				s.Min = c
			}
			if c > s.Max {
				s.Max = c
			}
		}
		stats = &s
	}

	e.memo.valid = true
	e.memo.lo = lo
	e.memo.hi = hi
	e.memo.stats = stats
	return stats
}

// Shift moves both window edges by delta, clamped.
func (e *Engine) Shift(delta int) {
	e.SetWindow(e.start+delta, e.end+delta)
}

// Grow moves the high edge out (or in, for negative delta) by delta,
// clamped. Operates on normalized bounds so backwards windows grow the
// visually right-hand edge.
func (e *Engine) Grow(delta int) {
	lo, hi := e.Bounds()
	e.SetWindow(lo, hi+delta)
}

func (e *Engine) clamp(i int) int {
	max := len(e.series) - 1
	if max < 0 {
		max = 0
	}
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
