// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkazakov/reax/internal/model"
	"github.com/dkazakov/reax/internal/stats"
	"github.com/dkazakov/reax/internal/store"
)

const (
	tabOverview = iota
	tabHistory
	tabHourly
	tabColors
)

const (
	plotHeight = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.FilterConfig

	records []model.HistoryRecord
	errMsg  string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	colorTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	confirmClear bool
	clearMsg     string
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.FilterConfig) *Model {
	if cfg.View == "" {
		cfg.View = model.ViewAll
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "History", "Hourly", "Colors"},
	}
	m.initInputs()
	m.initColorTable()
	m.initViewports()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.confirmClear {
			return m.updateConfirmClear(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabColors {
			m.colorTable.Focus()
		} else {
			m.colorTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "v":
			m.cfg.View = nextView(m.cfg.View)
			m.refresh()
			return m, nil
		case "o":
			m.cfg.RemoveOutliers = !m.cfg.RemoveOutliers
			m.refresh()
			return m, nil
		case "/":
			return m.startFilter()
		case "x":
			m.confirmClear = true
			m.clearMsg = ""
			return m, nil
		case "g", "home":
			if m.activeTab == tabColors {
				m.colorTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabColors {
				m.colorTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabColors {
				var cmd tea.Cmd
				m.colorTable, cmd = m.colorTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirmClear {
		return fitLines(m.renderClearModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Kind: "),
		newFilterInput("From (YYYY-MM-DD): "),
		newFilterInput("To (YYYY-MM-DD): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromConfig()
}

func (m *Model) initColorTable() {
	m.colorTable = table.New(
		table.WithColumns(colorTableColumns()),
		table.WithHeight(1),
	)
	m.colorTable.SetStyles(colorTableStyles())
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[0].SetValue(string(m.cfg.Kind))
	if m.cfg.From != nil {
		m.filterInputs[1].SetValue(m.cfg.From.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.To != nil {
		m.filterInputs[2].SetValue(m.cfg.To.Format("2006-01-02"))
	} else {
		m.filterInputs[2].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[3].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.colorTable.SetWidth(m.width)
	m.colorTable.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabColors {
		m.colorTable.Focus()
	} else {
		m.colorTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	kind := string(m.cfg.Kind)
	if kind == "" {
		kind = "any"
	}
	from := "any"
	if m.cfg.From != nil {
		from = m.cfg.From.Format("2006-01-02")
	}
	to := "any"
	if m.cfg.To != nil {
		to = m.cfg.To.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	outliers := "off"
	if m.cfg.RemoveOutliers {
		outliers = "on"
	}
	summary := fmt.Sprintf("Filters: kind=%s  from=%s  to=%s  last=%s  view=%s  outliers=%s",
		kind, from, to, last, m.cfg.View, outliers)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  View: v  Outliers: o  Filters: /  Clear: x  Quit: q"
	return headerStyle.Render(help)
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: q")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	if m.clearMsg != "" {
		return m.renderHelp() + "\n" + headerStyle.Render(m.clearMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabColors {
		if len(m.records) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		view := tableMutedStyle.Render(m.colorTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refresh() {
	ctx := context.Background()
	all, err := m.store.LoadAll(ctx)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	m.errMsg = ""
	m.records = stats.FilterRecords(all, m.cfg)
	m.colorTable.SetRows(colorTableRows(stats.ColorAverages(m.records)))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.records, m.cfg.View, width))
	m.viewports[tabHistory].SetContent(renderHistory(m.records))
	m.viewports[tabHourly].SetContent(renderHourly(m.records, width))
}

func renderOverview(records []model.HistoryRecord, view model.GroupView, width int) string {
	if len(records) == 0 {
		return "No sessions found."
	}
	summary := renderSummaryCards(records, width)
	plot := renderGroupPlot(records, view, width)
	return strings.TrimRight(summary+"\n\n"+plot, "\n")
}

func renderSummaryCards(records []model.HistoryRecord, width int) string {
	agg := stats.Summarize(records)
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(records))),
		metricCard("Trials", fmt.Sprintf("%d", agg.Trials)),
		metricCard("Average", fmt.Sprintf("%.1f ms", agg.Mean)),
		metricCard("Median", fmt.Sprintf("%.1f ms", agg.Median)),
		metricCard("Best", fmt.Sprintf("%.1f ms", agg.Min)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderGroupPlot(records []model.HistoryRecord, view model.GroupView, width int) string {
	series := stats.GroupSeries(records, view)
	var buf bytes.Buffer
	title := fmt.Sprintf("Reaction time by %s", view)
	if err := stats.Plot(&buf, title, series, stats.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render plot: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderHistory(records []model.HistoryRecord) string {
	var buf bytes.Buffer
	if err := stats.RenderHistory(&buf, records); err != nil {
		return fmt.Sprintf("Failed to render history: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderHourly(records []model.HistoryRecord, width int) string {
	bands := stats.HourlyBands(records)
	if len(bands) == 0 {
		return "No data for hourly bands."
	}
	var buf bytes.Buffer
	if err := stats.RenderHourly(&buf, bands); err != nil {
		return fmt.Sprintf("Failed to render hourly bands: %v", err)
	}
	buf.WriteString("\n")
	if err := stats.Plot(&buf, "Reaction time by hour of day", stats.HourlySeries(bands), stats.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render hourly plot: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func colorTableColumns() []table.Column {
	return []table.Column{
		{Title: "Stimulus", Width: 10},
		{Title: "Average (ms)", Width: 13},
	}
}

func colorTableRows(averages []stats.ColorAverage) []table.Row {
	rows := make([]table.Row, 0, len(averages))
	for _, avg := range averages {
		rows = append(rows, table.Row{avg.Color, fmt.Sprintf("%.1f", avg.Mean)})
	}
	return rows
}

func colorTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmClear = false
		if err := m.store.ClearAll(context.Background()); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.clearMsg = "History cleared."
		m.refresh()
		return m, tea.ClearScreen
	case "n", "N", "esc", "q":
		m.confirmClear = false
		return m, tea.ClearScreen
	default:
		return m, nil
	}
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	kindInput := strings.TrimSpace(m.filterInputs[0].Value())
	var kind model.Kind
	if kindInput != "" {
		parsed, err := model.ParseKind(kindInput)
		if err != nil {
			return fmt.Errorf("invalid kind (use Freeplay Visual, Freeplay Audio or Tester Visual)")
		}
		kind = parsed
	}

	from, err := parseDateInput(m.filterInputs[1].Value())
	if err != nil {
		return fmt.Errorf("invalid from date (expected YYYY-MM-DD)")
	}
	to, err := parseDateInput(m.filterInputs[2].Value())
	if err != nil {
		return fmt.Errorf("invalid to date (expected YYYY-MM-DD)")
	}

	lastInput := strings.TrimSpace(m.filterInputs[3].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	m.cfg = model.FilterConfig{
		Kind:           kind,
		From:           from,
		To:             to,
		Last:           last,
		RemoveOutliers: m.cfg.RemoveOutliers,
		View:           m.cfg.View,
	}
	return nil
}

func parseDateInput(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", input, time.Local)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (m *Model) renderClearModal() string {
	title := cardValueStyle.Render("Clear History")
	body := []string{
		title,
		"",
		"This deletes every stored session. There is no undo.",
		"",
		headerStyle.Render("y: clear  n/esc: cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func nextView(view model.GroupView) model.GroupView {
	switch view {
	case model.ViewAll:
		return model.ViewSession
	case model.ViewSession:
		return model.ViewDay
	case model.ViewDay:
		return model.ViewWeek
	default:
		return model.ViewAll
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
