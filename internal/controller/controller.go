// Package controller coordinates the dashboard's asynchronous pipelines
// (ingestion confirmation, series loading, per-day headline fetching)
// against the user's editable selection, keeping every derived view
// consistent and never applying a superseded response.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tickerscope/internal/domain"
	"tickerscope/internal/recorder"
	"tickerscope/internal/selection"
	"tickerscope/internal/window"
)

// Gateway confirms that backend data exists for a (ticker, range) before
// any price query. The call is idempotent.
type Gateway interface {
	ConfirmIngest(ctx context.Context, ticker string, r domain.DateRange) error
}

// SeriesLoader fetches the full daily close series for a confirmed
// (ticker, range).
type SeriesLoader interface {
	FetchClose(ctx context.Context, ticker string, r domain.DateRange) ([]domain.PricePoint, error)
}

// HeadlineFetcher fetches headlines for one (ticker, day).
type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context, ticker, day string) ([]domain.Headline, error)
}

// Controller owns the selection store, the window engine, and all pipeline
// state. Its methods are safe for concurrent use; overlapping pipeline
// invocations are resolved by sequence fencing, so whichever invocation was
// issued last is the only one whose response is applied.
type Controller struct {
	gateway Gateway
	loader  SeriesLoader
	news    HeadlineFetcher
	rec     recorder.Recorder
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu  sync.Mutex
	sel *selection.Store
	win *window.Engine

	seriesLoaded bool
	loadStatus   domain.LoadStatus
	loadSeq      uint64

	selectedDay string
	headlines   []domain.Headline
	newsStatus  domain.LoadStatus
	newsSeq     uint64
}

// Options configures optional controller collaborators.
type Options struct {
	Recorder recorder.Recorder // defaults to a NoopRecorder
	Logger   *slog.Logger      // defaults to slog.Default()
	Timeout  time.Duration     // per-pipeline deadline; defaults to 15s
	Now      func() time.Time  // clock override for tests
}

// New creates a Controller with an empty series and the default selection
// range (last 365 days).
func New(gateway Gateway, loader SeriesLoader, news HeadlineFetcher, opts Options) *Controller {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		gateway: gateway,
		loader:  loader,
		news:    news,
		rec:     opts.Recorder,
		log:     opts.Logger,
		timeout: opts.Timeout,
		now:     opts.Now,
		sel:     selection.NewStore(opts.Now()),
		win:     window.New(),
	}
}

// ---------------------------------------------------------------------------
// Selection mutations (pure, no pipeline)
// ---------------------------------------------------------------------------

// SetDraft stores the user-typed ticker draft.
func (c *Controller) SetDraft(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SetDraft(ticker)
}

// SetRangeStart sets the range start date.
func (c *Controller) SetRangeStart(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SetRangeStart(day)
}

// SetRangeEnd sets the range end date.
func (c *Controller) SetRangeEnd(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SetRangeEnd(day)
}

// SetWindow stores the brush window over the loaded series, clamped.
func (c *Controller) SetWindow(start, end int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win.SetWindow(start, end)
}

// ShiftWindow pans the brush window by delta points.
func (c *Controller) ShiftWindow(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win.Shift(delta)
}

// GrowWindow widens (or narrows) the brush window by delta points.
func (c *Controller) GrowWindow(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win.Grow(delta)
}

// ---------------------------------------------------------------------------
// Series pipeline
// ---------------------------------------------------------------------------

// ConfirmAndLoad normalizes the ticker and runs the full ingestion-confirm
// plus series-fetch pipeline. On success the ticker becomes active; on
// failure at either stage the previously active ticker is untouched and the
// series is cleared (not left stale). An empty ticker is a no-op.
func (c *Controller) ConfirmAndLoad(ctx context.Context, ticker string) error {
	t := domain.NormalizeTicker(ticker)
	if t == "" {
		return nil
	}
	return c.runLoad(ctx, t, true)
}

// ApplyRange re-runs the pipeline for the currently active ticker with the
// current date range. A no-op before the first successful load.
func (c *Controller) ApplyRange(ctx context.Context) error {
	c.mu.Lock()
	active := c.sel.Active()
	c.mu.Unlock()

	if active == "" {
		return nil
	}
	return c.runLoad(ctx, active, false)
}

// ApplyPreset writes [today-days, today] into the date range and then runs
// the ApplyRange pipeline. The range edit commits immediately and survives
// a failed load.
func (c *Controller) ApplyPreset(ctx context.Context, days int) error {
	c.mu.Lock()
	c.sel.SetRange(domain.LastDays(days, c.now()))
	c.mu.Unlock()
	return c.ApplyRange(ctx)
}

// ApplyMax applies the widest range the backend retains.
func (c *Controller) ApplyMax(ctx context.Context) error {
	return c.ApplyPreset(ctx, domain.MaxHistoryDays)
}

// runLoad executes one fenced pipeline invocation: confirm ingestion, then
// fetch the series, then commit. The ingestion confirmation is awaited
// before the price fetch; fetching early can return incomplete data.
func (c *Controller) runLoad(ctx context.Context, ticker string, commit bool) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.loadStatus = domain.Loading()
	// A new series supersedes any day selection and any in-flight headline
	// fetch; bumping the news sequence drops a late response.
	c.newsSeq++
	c.selectedDay = ""
	c.headlines = nil
	c.newsStatus = domain.LoadStatus{}
	r := c.sel.Range()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.gateway.ConfirmIngest(ctx, ticker, r)
	var series []domain.PricePoint
	if err == nil {
		series, err = c.loader.FetchClose(ctx, ticker, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.loadSeq {
		// A newer invocation owns the state now; drop this response.
		c.log.Debug("dropping superseded series response", "ticker", ticker, "seq", seq)
		return nil
	}

	if err != nil {
		c.win.Replace(nil)
		c.seriesLoaded = false
		c.loadStatus = domain.Failed(err.Error())
		c.log.Warn("series load failed", "ticker", ticker, "error", err)
		return err
	}

	c.win.Replace(series)
	c.seriesLoaded = true
	c.loadStatus = domain.Ready()
	if commit {
		c.sel.CommitActive(ticker)
	}
	c.log.Info("series loaded", "ticker", ticker, "points", len(series),
		"start", r.Start, "end", r.End)

	if err := c.rec.RecordLoad(&recorder.LoadRecord{
		Ticker:   ticker,
		Start:    r.Start,
		End:      r.End,
		Points:   len(series),
		LoadedAt: c.now(),
	}); err != nil {
		// History is best-effort; a recording failure never fails the load.
		c.log.Warn("recording load", "ticker", ticker, "error", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Drill-down pipeline
// ---------------------------------------------------------------------------

// SelectDay stores the day selection and fetches its headlines for the
// active ticker. Selecting a new day while a previous fetch is outstanding
// fences out the stale response. A no-op without an active ticker.
func (c *Controller) SelectDay(ctx context.Context, day string) error {
	c.mu.Lock()
	ticker := c.sel.Active()
	if ticker == "" || day == "" {
		c.mu.Unlock()
		return nil
	}
	c.newsSeq++
	seq := c.newsSeq
	c.selectedDay = day
	c.headlines = nil
	c.newsStatus = domain.Loading()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	headlines, err := c.news.FetchHeadlines(ctx, ticker, day)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.newsSeq {
		c.log.Debug("dropping superseded headline response", "day", day, "seq", seq)
		return nil
	}

	if err != nil {
		c.headlines = nil
		c.newsStatus = domain.Failed(err.Error())
		c.log.Warn("headline fetch failed", "ticker", ticker, "day", day, "error", err)
		return err
	}

	c.headlines = headlines
	c.newsStatus = domain.Ready()
	return nil
}

// ClearDay dismisses the drill-down panel. Any in-flight headline fetch is
// fenced out.
func (c *Controller) ClearDay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newsSeq++
	c.selectedDay = ""
	c.headlines = nil
	c.newsStatus = domain.LoadStatus{}
}
