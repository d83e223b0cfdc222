package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tickerscope/internal/backend"
	"tickerscope/internal/config"
	"tickerscope/internal/controller"
	"tickerscope/internal/domain"
	"tickerscope/internal/export"
	"tickerscope/internal/recorder"
	"tickerscope/internal/util"
)

// Styles.
var (
	headerBarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tickerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dirtyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	readyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	loadingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dateStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	upStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("236"))
	dayLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

// Input focus.
const (
	focusTable = iota
	focusTicker
	focusStart
	focusEnd
)

// Messages.
type loadDoneMsg struct{ err error }
type newsDoneMsg struct{ err error }
type healthMsg struct{ err error }
type recentMsg struct {
	tickers []string
	err     error
}
type exportDoneMsg struct {
	path string
	err  error
}
type coverageMsg struct {
	cov *backend.Coverage
	err error
}

type model struct {
	ctrl    *controller.Controller
	client  *backend.Client
	rec     recorder.Recorder
	cfg     *config.Config
	logger  *slog.Logger
	baseCtx context.Context

	input         textinput.Model
	viewport      viewport.Model
	ready         bool
	width, height int
	focus         int

	cursor     int // row index into the visible slice
	recent     []string
	coverage   *backend.Coverage
	healthErr  error
	statusLine string
}

func initialModel(ctx context.Context, ctrl *controller.Controller, client *backend.Client, rec recorder.Recorder, cfg *config.Config, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "ticker"
	ti.CharLimit = 12
	ti.Width = 14
	ti.Prompt = "> "
	ti.Focus()

	return model{
		ctrl:    ctrl,
		client:  client,
		rec:     rec,
		cfg:     cfg,
		logger:  logger,
		baseCtx: ctx,
		input:   ti,
		focus:   focusTicker,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.healthCmd(), m.recentCmd()}
	if t := m.cfg.UI.DefaultTicker; t != "" {
		cmds = append(cmds, m.loadCmd(t))
	}
	return tea.Batch(cmds...)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m model) healthCmd() tea.Cmd {
	client := m.client
	ctx := m.baseCtx
	return func() tea.Msg {
		probe, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return healthMsg{err: client.Health(probe)}
	}
}

func (m model) recentCmd() tea.Cmd {
	rec := m.rec
	return func() tea.Msg {
		tickers, err := rec.RecentTickers(5)
		return recentMsg{tickers: tickers, err: err}
	}
}

func (m model) loadCmd(ticker string) tea.Cmd {
	ctrl := m.ctrl
	ctx := m.baseCtx
	return func() tea.Msg {
		return loadDoneMsg{err: ctrl.ConfirmAndLoad(ctx, ticker)}
	}
}

func (m model) rangeCmd() tea.Cmd {
	ctrl := m.ctrl
	ctx := m.baseCtx
	return func() tea.Msg {
		return loadDoneMsg{err: ctrl.ApplyRange(ctx)}
	}
}

func (m model) presetCmd(days int) tea.Cmd {
	ctrl := m.ctrl
	ctx := m.baseCtx
	return func() tea.Msg {
		return loadDoneMsg{err: ctrl.ApplyPreset(ctx, days)}
	}
}

func (m model) maxCmd() tea.Cmd {
	ctrl := m.ctrl
	ctx := m.baseCtx
	return func() tea.Msg {
		return loadDoneMsg{err: ctrl.ApplyMax(ctx)}
	}
}

func (m model) selectDayCmd(day string) tea.Cmd {
	ctrl := m.ctrl
	ctx := m.baseCtx
	return func() tea.Msg {
		return newsDoneMsg{err: ctrl.SelectDay(ctx, day)}
	}
}

func (m model) coverageCmd(ticker string) tea.Cmd {
	client := m.client
	ctx := m.baseCtx
	return func() tea.Msg {
		probe, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cov, err := client.FetchCoverage(probe, ticker)
		return coverageMsg{cov: cov, err: err}
	}
}

func (m model) exportCmd() tea.Cmd {
	snap := m.ctrl.Snapshot()
	dir := m.cfg.Storage.ExportDir
	return func() tea.Msg {
		if dir == "" {
			return exportDoneMsg{err: fmt.Errorf("no export dir configured")}
		}
		path, err := export.WriteSeries(dir, snap.Active, snap.Range, snap.Series)
		return exportDoneMsg{path: path, err: err}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus != focusTable {
			return m.updateInput(msg)
		}
		return m.updateTable(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 3 // header, input line, footer
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.logger.Warn("load finished with error", "error", msg.err)
		}
		m.cursor = 0
		m.statusLine = ""
		m.refresh()
		cmds := []tea.Cmd{m.recentCmd()}
		if active := m.ctrl.Snapshot().Active; active != "" {
			cmds = append(cmds, m.coverageCmd(active))
		}
		return m, tea.Batch(cmds...)

	case newsDoneMsg:
		if msg.err != nil {
			m.logger.Warn("headline fetch finished with error", "error", msg.err)
		}
		m.refresh()
		return m, nil

	case healthMsg:
		m.healthErr = msg.err
		if msg.err != nil {
			m.logger.Warn("backend health probe failed", "error", msg.err)
		}
		m.refresh()
		return m, nil

	case coverageMsg:
		if msg.err != nil {
			m.logger.Warn("fetching coverage", "error", msg.err)
			m.coverage = nil
		} else {
			m.coverage = msg.cov
		}
		m.refresh()
		return m, nil

	case recentMsg:
		if msg.err != nil {
			m.logger.Warn("loading recent tickers", "error", msg.err)
		} else {
			m.recent = msg.tickers
		}
		m.refresh()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.statusLine = "export failed: " + msg.err.Error()
		} else {
			m.statusLine = "exported " + msg.path
		}
		m.refresh()
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// updateInput handles keys while one of the text prompts is focused.
func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.focus = focusTable
		m.input.Blur()
		m.refresh()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		focus := m.focus
		m.focus = focusTable
		m.input.Blur()
		m.input.SetValue("")

		switch focus {
		case focusTicker:
			if value == "" {
				m.refresh()
				return m, nil
			}
			m.ctrl.SetDraft(value)
			m.refresh()
			return m, m.loadCmd(value)
		case focusStart:
			if value != "" && !domain.ValidDay(value) {
				m.statusLine = "start date must be YYYY-MM-DD"
				m.refresh()
				return m, nil
			}
			m.ctrl.SetRangeStart(value)
			m.refresh()
			return m, m.rangeCmd()
		case focusEnd:
			if value != "" && !domain.ValidDay(value) {
				m.statusLine = "end date must be YYYY-MM-DD"
				m.refresh()
				return m, nil
			}
			m.ctrl.SetRangeEnd(value)
			m.refresh()
			return m, m.rangeCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.focus == focusTicker {
		m.ctrl.SetDraft(m.input.Value())
	}
	m.refresh()
	return m, cmd
}

// updateTable handles keys while the series table is focused.
func (m model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "t", "/":
		m.focus = focusTicker
		m.input.Placeholder = "ticker"
		m.input.SetValue(snap.Draft)
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink

	case "s":
		m.focus = focusStart
		m.input.Placeholder = "start YYYY-MM-DD"
		m.input.SetValue(snap.Range.Start)
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink

	case "d":
		m.focus = focusEnd
		m.input.Placeholder = "end YYYY-MM-DD"
		m.input.SetValue(snap.Range.End)
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink

	case "r":
		return m, m.rangeCmd()

	case "m":
		return m, m.maxCmd()

	case "e":
		return m, m.exportCmd()

	case "up", "down":
		n := len(snap.Visible)
		if n == 0 {
			return m, nil
		}
		if key == "up" && m.cursor > 0 {
			m.cursor--
		}
		if key == "down" && m.cursor < n-1 {
			m.cursor++
		}
		m.refresh()
		m.ensureVisible()
		return m, nil

	case "left":
		m.ctrl.ShiftWindow(-1)
		m.clampCursor()
		m.refresh()
		return m, nil

	case "right":
		m.ctrl.ShiftWindow(1)
		m.clampCursor()
		m.refresh()
		return m, nil

	case "+", "=":
		m.ctrl.GrowWindow(7)
		m.refresh()
		return m, nil

	case "-":
		m.ctrl.GrowWindow(-7)
		m.clampCursor()
		m.refresh()
		return m, nil

	case "enter":
		if m.cursor < len(snap.Visible) {
			day := snap.Visible[m.cursor].Date
			m.refresh()
			return m, m.selectDayCmd(day)
		}
		return m, nil

	case "esc":
		m.ctrl.ClearDay()
		m.statusLine = ""
		m.refresh()
		return m, nil
	}

	// Digits map to the configured range presets.
	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.cfg.UI.PresetDays) {
		return m, m.presetCmd(m.cfg.UI.PresetDays[n-1])
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *model) clampCursor() {
	n := len(m.ctrl.Snapshot().Visible)
	if n == 0 {
		m.cursor = 0
	} else if m.cursor >= n {
		m.cursor = n - 1
	}
}

func (m *model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// ensureVisible scrolls the viewport so the cursor row is on screen.
func (m *model) ensureVisible() {
	line := m.cursor + 1 // column header occupies the first line
	yOff := m.viewport.YOffset
	vpH := m.viewport.Height
	if line < yOff {
		m.viewport.SetYOffset(line)
	} else if line >= yOff+vpH {
		m.viewport.SetYOffset(line - vpH + 1)
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	snap := m.ctrl.Snapshot()

	header := m.renderHeader(snap)
	inputLine := m.renderInputLine(snap)
	footer := m.renderFooter()

	return header + "\n" + inputLine + "\n" + m.viewport.View() + "\n" + footer
}

func (m model) renderHeader(snap controller.Snapshot) string {
	ticker := snap.Active
	if ticker == "" {
		ticker = "(none)"
	}
	status := formatStatus(snap.LoadStatus)

	text := fmt.Sprintf(" tickerscope  %s  %s..%s  %s",
		ticker, orDash(snap.Range.Start), orDash(snap.Range.End), status)
	if snap.SeriesLoaded {
		text += fmt.Sprintf("  points: %d  window: %d-%d", len(snap.Series), snap.WindowStart, snap.WindowEnd)
		if snap.Stats != nil {
			text += fmt.Sprintf("  min: %.2f  max: %.2f", snap.Stats.Min, snap.Stats.Max)
		}
	}
	if m.healthErr != nil {
		text += "  [backend unreachable]"
	}
	return headerBarStyle.Render(padOrTrunc(text+" ", m.width))
}

func (m model) renderInputLine(snap controller.Snapshot) string {
	if m.focus != focusTable {
		label := map[int]string{focusTicker: "ticker", focusStart: "start", focusEnd: "end"}[m.focus]
		return promptStyle.Render(" "+label+" ") + m.input.View()
	}

	draft := tickerStyle.Render(snap.Draft)
	if snap.Dirty {
		draft = dirtyStyle.Render(snap.Draft + " *")
	}
	line := " draft: " + draft
	if cov := m.coverage; cov != nil && cov.Ticker == snap.Active && cov.Count > 0 {
		line += dimStyle.Render(fmt.Sprintf("   stored: %s..%s (%d bars)", cov.Min, cov.Max, cov.Count))
	}
	if len(m.recent) > 0 {
		line += dimStyle.Render("   recent: " + strings.Join(m.recent, " "))
	}
	if m.statusLine != "" {
		line += "   " + dimStyle.Render(m.statusLine)
	}
	return line
}

func (m model) renderFooter() string {
	presets := make([]string, 0, len(m.cfg.UI.PresetDays))
	for i, d := range m.cfg.UI.PresetDays {
		presets = append(presets, fmt.Sprintf("%d=%dd", i+1, d))
	}
	text := fmt.Sprintf(" q quit  t ticker  s/d dates  r reload  %s  m max  arrows pan  +/- zoom  enter day  esc clear  e export",
		strings.Join(presets, " "))
	return footerBarStyle.Render(padOrTrunc(text, m.width))
}

func (m model) renderContent() string {
	snap := m.ctrl.Snapshot()
	var b strings.Builder

	if !snap.SeriesLoaded {
		switch snap.LoadStatus.State {
		case domain.StateLoading:
			b.WriteString(loadingStyle.Render("  loading..."))
		case domain.StateError:
			b.WriteString(errorStyle.Render("  " + snap.LoadStatus.Message))
		default:
			b.WriteString(dimStyle.Render("  Press t to enter a ticker."))
		}
		b.WriteString("\n")
		return b.String()
	}

	if len(snap.Visible) == 0 {
		b.WriteString(dimStyle.Render("  No data points in the selected range."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-12s %10s %9s", "Date", "Close", "Change")))
	b.WriteString("\n")

	prev := 0.0
	havePrev := false
	for i, p := range snap.Visible {
		change := ""
		style := dimStyle
		if havePrev && prev != 0 {
			pct := (p.Close - prev) / prev * 100
			change = fmt.Sprintf("%+.2f%%", pct)
			if pct >= 0 {
				style = upStyle
			} else {
				style = downStyle
			}
		}
		prev = p.Close
		havePrev = true

		row := dateStyle.Render(fmt.Sprintf("  %-12s", p.Date)) +
			priceStyle.Render(fmt.Sprintf("%10.2f", p.Close)) +
			" " + style.Render(fmt.Sprintf("%8s", change))
		if i == m.cursor && m.focus == focusTable {
			row = selectedStyle.Render(fmt.Sprintf("  %-12s%10.2f %8s", p.Date, p.Close, change))
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if snap.SelectedDay != "" {
		b.WriteString("\n")
		b.WriteString(dayLabelStyle.Render(fmt.Sprintf("  headlines for %s  ", snap.SelectedDay)))
		b.WriteString("\n")
		switch snap.NewsStatus.State {
		case domain.StateLoading:
			b.WriteString(loadingStyle.Render("  loading headlines..."))
			b.WriteString("\n")
		case domain.StateError:
			b.WriteString(errorStyle.Render("  " + snap.NewsStatus.Message))
			b.WriteString("\n")
		case domain.StateReady:
			if len(snap.Headlines) == 0 {
				b.WriteString(dimStyle.Render("  no headlines for this day"))
				b.WriteString("\n")
			}
			for _, h := range snap.Headlines {
				b.WriteString("  " + h.Title)
				if h.Source != "" {
					b.WriteString("  " + sourceStyle.Render("("+h.Source+")"))
				}
				b.WriteString("\n")
				if h.URL != "" {
					b.WriteString(dimStyle.Render("    " + h.URL))
					b.WriteString("\n")
				}
			}
		}
	}

	return b.String()
}

func formatStatus(s domain.LoadStatus) string {
	switch s.State {
	case domain.StateLoading:
		return loadingStyle.Render("loading")
	case domain.StateReady:
		return readyStyle.Render("ready")
	case domain.StateError:
		return errorStyle.Render("error")
	default:
		return dimStyle.Render("idle")
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	logPath := fmt.Sprintf("/tmp/tickerscope-%s.log", time.Now().Format("2006-01-02"))
	logger, logFile, err := util.NewFileLogger(logPath, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	util.SetDefault(logger)

	timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	client := backend.NewClient(cfg.Backend.BaseURL, timeout)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Storage.SQLitePath != "" {
		sq, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Warn("opening load history db", "path", cfg.Storage.SQLitePath, "error", err)
		} else {
			rec = sq
			defer sq.Close()
		}
	}

	ctrl := controller.New(client, client, client, controller.Options{
		Recorder: rec,
		Logger:   logger,
		Timeout:  timeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("starting", "backend", cfg.Backend.BaseURL, "timeout", timeout.String())

	p := tea.NewProgram(
		initialModel(ctx, ctrl, client, rec, cfg, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
