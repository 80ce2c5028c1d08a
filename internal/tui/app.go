// Package tui provides the interactive Bubble Tea dashboard for kirana.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
	"github.com/theirongolddev/kirana/internal/source"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// DataLoadedMsg is sent when the loader finishes, successfully or not.
type DataLoadedMsg struct {
	Sales    []model.Sale
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background reload completes.
type RefreshDataMsg struct {
	Sales    []model.Sale
	LoadTime time.Duration
	Err      error
}

// Options configures the dashboard.
type Options struct {
	DataFile   string
	Schema     source.Schema
	Days       int
	AsOf       string
	Product    string
	Stock      config.StockLevels
	Thresholds forecast.Thresholds
	Horizon    int
	MinRecords int
	NoCache    bool
}

const (
	tabOverview = iota
	tabTop
	tabTrends
	tabRestock
	tabForecast
)

// windowChoices are the windows the d key cycles through.
var windowChoices = []int{7, 14, 30, 60, 90}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	sales    []model.Sale
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool
	notice          string

	// Pre-computed for the current window and search
	view dashboardData

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	cursor    int // selected row in Top Sellers and Restock
	scroll    int

	// Product search
	searching   bool
	searchInput textinput.Model
	query       string

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	refreshInterval  = 30 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:            opts,
		query:           opts.Product,
		needSetup:       !config.Exists(),
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.sales = msg.Sales
		}
		a.recompute()

		if a.needSetup {
			a.setupVals = newSetupValues(a.opts)
			a.setupForm = newSetupForm(setupIntro(len(a.sales), a.opts.DataFile), &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		if msg.Err != nil {
			// Keep showing the last good data.
			a.notice = "reload failed: " + msg.Err.Error()
			if !a.hasData() {
				a.loadErr = msg.Err
			}
			return a, nil
		}
		a.notice = ""
		a.loadErr = nil
		a.sales = msg.Sales
		a.loadTime = msg.LoadTime
		a.recompute()
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.setTab(tab)
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.searching {
		return a.updateSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "/":
		a.searching = true
		a.searchInput = newSearchInput(a.query)
		return a, a.searchInput.Focus()
	case "esc":
		if a.query != "" {
			a.query = ""
			a.recompute()
		}
		return a, nil
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		return a, nil
	case "d":
		a.opts.Days = nextWindow(a.opts.Days)
		a.recompute()
		return a, nil
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "g":
		a.cursor, a.scroll = 0, 0
		return a, nil
	case "G":
		a.cursor = max(0, a.listLen()-1)
		return a, nil
	case "enter":
		// Jump from a product list to its forecast.
		if a.activeTab == tabTop || a.activeTab == tabRestock {
			a.view.focus = a.selectedProduct()
			a.activeTab = tabForecast
		}
		return a, nil
	case "left", "h":
		a.setTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		return a, nil
	case "right", "l", "tab":
		a.setTab((a.activeTab + 1) % len(components.Tabs))
		return a, nil
	}

	if len(key) == 1 {
		if tab := components.TabIdxByKey(rune(key[0])); tab >= 0 {
			a.setTab(tab)
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		reload := a.applySetup()
		a.needSetup = false
		a.setupForm = nil
		if reload {
			a.refreshing = true
			return a, refreshDataCmd(a.opts)
		}
		a.recompute()
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a *App) setTab(tab int) {
	a.activeTab = tab
	a.scroll = 0
	a.cursor = max(0, min(a.cursor, a.listLen()-1))
}

// moveCursor moves the selection in list tabs and scrolls elsewhere.
func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabTop, tabRestock:
		a.cursor = max(0, min(a.cursor+delta, a.listLen()-1))
	default:
		a.scroll = max(0, a.scroll+delta)
	}
}

func (a App) listLen() int {
	if a.activeTab == tabRestock {
		return len(a.view.projections)
	}
	return len(a.view.top)
}

// selectedProduct is the product under the cursor of the active list.
func (a App) selectedProduct() string {
	switch {
	case a.activeTab == tabRestock && a.cursor < len(a.view.projections):
		return a.view.projections[a.cursor].Product
	case a.cursor < len(a.view.top):
		return a.view.top[a.cursor].Product
	default:
		return a.view.focus
	}
}

func (a App) hasData() bool {
	return len(a.sales) > 0
}

func nextWindow(days int) int {
	for _, d := range windowChoices {
		if d > days {
			return d
		}
	}
	return windowChoices[0]
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.needSetup && a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  kirana needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ kirana"))
	b.WriteString(mutedStyle.Render(" · sales and stock"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 1 {
		barW := max(20, min(40, a.width-30))
		b.WriteString(mutedStyle.Render(" Parsing files\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(mutedStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(mutedStyle.Render(" Reading " + a.opts.DataFile + "..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o t w s f", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection or scroll"},
			{"g G", "First / Last row"},
			{"Enter", "Forecast the selected product"},
		}},
		{"Data", [][2]string{
			{"/", "Search products"},
			{"Esc", "Clear search"},
			{"d", "Cycle window (7/14/30/60/90 days)"},
			{"r", "Reload the sales file"},
			{"R", "Toggle auto-reload"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		DataFile:    a.opts.DataFile,
		Sales:       len(a.sales),
		LoadTime:    fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Message:     a.notice,
	})

	contentH := max(minContentHeight, a.height-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch {
	case a.loadErr != nil:
		content = a.renderLoadError(cw)
	case a.view.err != nil:
		content = components.ContentCard("Configuration", a.view.err.Error(), cw)
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabTop:
			content = a.renderTopTab(cw, contentH)
		case tabTrends:
			content = a.renderTrendsTab(cw)
		case tabRestock:
			content = a.renderRestockTab(cw, contentH)
		case tabForecast:
			content = a.renderForecastTab(cw)
		}
		if a.activeTab != tabTop && a.activeTab != tabRestock {
			content = scrollLines(content, a.scroll)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderFilterRow(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	row := dim.Render(" window ") + accent.Render(strconv.Itoa(a.opts.Days)+"d")
	if !a.view.until.IsZero() {
		row += dim.Render(" │ ") + accent.Render(cli.FormatDate(a.view.since)+" to "+cli.FormatDate(a.view.until))
	}
	switch {
	case a.searching:
		row += dim.Render(" │ search ") + a.searchInput.View()
	case a.query != "":
		row += dim.Render(" │ product ") + accent.Render(a.query)
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(row)
}

func (a App) renderLoadError(cw int) string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := errStyle.Render(a.loadErr.Error()) + "\n\n" +
		hint.Render("Fix the file and press r to reload, or run `kirana setup` to pick another file.")
	return components.ContentCard("Could not load sales", body, cw)
}

// ─── Search ─────────────────────────────────────────────────────

func newSearchInput(initial string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "product name"
	ti.Prompt = "/"
	ti.CharLimit = 64
	ti.Width = 30
	ti.SetValue(initial)
	return ti
}

// updateSearch handles keys while the search box is open.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.query = strings.TrimSpace(a.searchInput.Value())
		a.searching = false
		a.cursor, a.scroll = 0, 0
		a.recompute()
		return a, nil
	case "esc":
		a.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

// ─── Loading ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadData reads the sales file, through the cache unless disabled.
func loadData(opts Options, progressFn pipeline.ProgressFunc) ([]model.Sale, error) {
	if opts.NoCache {
		result, err := pipeline.Load(opts.DataFile, opts.Schema, progressFn)
		if err != nil {
			return nil, err
		}
		return result.Sales, nil
	}
	result, err := pipeline.LoadPreferCache(opts.DataFile, pipeline.CachePath(), opts.Schema, progressFn)
	if err != nil {
		return nil, err
	}
	return result.Sales, nil
}

// loadDataCmd starts loading in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking send: a dropped update is caught up by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			sales, err := loadData(opts, progressFn)
			sub <- DataLoadedMsg{Sales: sales, LoadTime: time.Since(start), Err: err}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads in the background without progress UI.
func refreshDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sales, err := loadData(opts, nil)
		return RefreshDataMsg{Sales: sales, LoadTime: time.Since(start), Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds compact X-axis labels for an oldest-first date
// series: month names at the start and at month boundaries, day numbers
// elsewhere.
func chartDateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	prevMonth := time.Month(0)
	for i, dt := range dates {
		switch {
		case i == len(dates)-1 && i > 0:
			labels[i] = strconv.Itoa(dt.Day())
		case dt.Month() != prevMonth:
			labels[i] = dt.Format("Jan")
		default:
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func scrollLines(s string, offset int) string {
	if offset <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if offset >= len(lines) {
		offset = len(lines) - 1
	}
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background
// colour so gaps between cards are not left unstyled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same widths RenderTabBar uses.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
