package controller

import (
	"tickerscope/internal/domain"
	"tickerscope/internal/window"
)

// Snapshot is a consistent view of all controller state, taken under one
// lock acquisition so no field can reflect a partially-applied update.
type Snapshot struct {
	Draft  string
	Active string
	Dirty  bool
	Range  domain.DateRange

	Series       []domain.PricePoint
	SeriesLoaded bool // false until the first load attempt resolves
	WindowStart  int
	WindowEnd    int
	Visible      []domain.PricePoint
	Stats        *window.Stats
	LoadStatus   domain.LoadStatus

	SelectedDay string
	Headlines   []domain.Headline
	NewsStatus  domain.LoadStatus
}

// Snapshot returns the current state for rendering. Series and Visible
// alias controller-owned storage and must be treated as read-only; they are
// replaced wholesale, never patched, so a held snapshot stays internally
// consistent.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	start, end := c.win.Window()
	var stats *window.Stats
	if s := c.win.StatsView(); s != nil {
		cp := *s
		stats = &cp
	}

	return Snapshot{
		Draft:  c.sel.Draft(),
		Active: c.sel.Active(),
		Dirty:  c.sel.Dirty(),
		Range:  c.sel.Range(),

		Series:       c.win.Series(),
		SeriesLoaded: c.seriesLoaded,
		WindowStart:  start,
		WindowEnd:    end,
		Visible:      c.win.VisibleSlice(),
		Stats:        stats,
		LoadStatus:   c.loadStatus,

		SelectedDay: c.selectedDay,
		Headlines:   c.headlines,
		NewsStatus:  c.newsStatus,
	}
}
