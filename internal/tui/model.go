// Package tui provides the Bubble Tea session interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/model"
	statsPkg "github.com/dkazakov/reax/internal/stats"
	"github.com/dkazakov/reax/internal/store"
	"github.com/dkazakov/reax/internal/trial"
)

// stimulusMsg fires when a scheduled countdown elapses.
type stimulusMsg struct {
	token int
}

// pauseMsg fires when the inter-trial pause elapses.
type pauseMsg struct {
	token int
}

// Model implements the Bubble Tea session UI. It hosts either a single
// freeplay runner or a cycling tester run; all trial timing flows through
// tea.Tick commands carrying wakeup tokens.
type Model struct {
	store  *store.Store
	runner *trial.Runner
	cycle  *trial.Cycle

	width  int
	height int

	pending    int // token of the last scheduled wakeup
	feedback   string
	lastSample float64
	hasSample  bool
	saveErr    error

	lastAvg float64
	hasLast bool
	allAvg  float64
	allN    int
}

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	feedbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// colorHex maps the supported stimulus color names to render colors.
var colorHex = map[string]string{
	"white":  "#FFFFFF",
	"black":  "#000000",
	"blue":   "#1E6FD9",
	"green":  "#2DA44E",
	"red":    "#D92B2B",
	"yellow": "#D9C22B",
	"orange": "#E8842C",
	"purple": "#8A3FC4",
	"brown":  "#8B5A2B",
	"grey":   "#808080",
}

func colorFor(name string) lipgloss.Color {
	if hex, ok := colorHex[strings.ToLower(name)]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(name)
}

// NewSession constructs the UI for a single freeplay session.
func NewSession(st *store.Store, runner *trial.Runner) *Model {
	m := &Model{store: st, runner: runner}
	m.loadFooterStats(runner.Config().Kind)
	return m
}

// NewTester constructs the UI for a category-cycling tester run.
func NewTester(st *store.Store, gen *delay.Generator) *Model {
	m := &Model{store: st, cycle: trial.NewCycle(gen)}
	m.loadFooterStats(model.KindTesterVisual)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.cycle != nil {
		return m.schedule(m.cycle.Start())
	}
	return m.schedule(m.runner.Start())
}

func (m *Model) schedule(w trial.Wakeup) tea.Cmd {
	m.pending = w.Token
	if w.Kind == trial.WakeupPause {
		return tea.Tick(w.Delay, func(time.Time) tea.Msg {
			return pauseMsg{token: w.Token}
		})
	}
	return tea.Tick(w.Delay, func(time.Time) tea.Msg {
		return stimulusMsg{token: w.Token}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stimulusMsg:
		if m.stimulusDue(msg.token, time.Now()) {
			m.feedback = ""
			if !m.kind().Visual() {
				ring()
			}
		}
		return m, nil
	case pauseMsg:
		if w, ok := m.pauseDue(msg.token); ok {
			m.hasSample = false
			return m, m.schedule(w)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.stop()
		return m, tea.Quit
	case tea.KeySpace, tea.KeyEnter:
		if m.phase() == trial.PhaseDone {
			return m, tea.Quit
		}
		return m, m.handleInput(time.Now())
	case tea.KeyRunes:
		if string(msg.Runes) == "q" {
			m.stop()
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleInput(now time.Time) tea.Cmd {
	if m.cycle != nil {
		return m.handleCycleInput(now)
	}
	out := m.runner.Input(now)
	switch out.Result {
	case trial.InputTooEarly:
		m.feedback = "Too early!"
		return nil
	case trial.InputScored:
		m.lastSample = out.Sample
		m.hasSample = true
		m.feedback = ""
		if out.Done {
			m.finishFreeplay(now)
			return nil
		}
		return m.schedule(*out.Next)
	default:
		return nil
	}
}

func (m *Model) handleCycleInput(now time.Time) tea.Cmd {
	out := m.cycle.Input(now)
	switch out.Result {
	case trial.InputTooEarly:
		m.feedback = "Too early!"
		return nil
	case trial.InputScored:
		m.lastSample = out.Sample
		m.hasSample = true
		m.feedback = ""
		if out.Record != nil {
			m.save(*out.Record)
		}
		if out.Done {
			return nil
		}
		return m.schedule(*out.Next)
	default:
		return nil
	}
}

func (m *Model) finishFreeplay(now time.Time) {
	rec, err := m.runner.Record(now)
	if err != nil {
		m.saveErr = err
		return
	}
	m.save(rec)
}

func (m *Model) save(rec model.HistoryRecord) {
	ctx := context.Background()
	if err := m.store.Append(ctx, rec); err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.lastAvg = rec.Average()
	m.hasLast = true
	m.allAvg = (m.allAvg*float64(m.allN) + sum(rec.Results)) / float64(m.allN+len(rec.Results))
	m.allN += len(rec.Results)
}

func (m *Model) stop() {
	if m.cycle != nil {
		m.cycle.Stop()
		return
	}
	m.runner.Stop()
}

func (m *Model) stimulusDue(token int, now time.Time) bool {
	if m.cycle != nil {
		return m.cycle.StimulusDue(token, now)
	}
	return m.runner.StimulusDue(token, now)
}

func (m *Model) pauseDue(token int) (trial.Wakeup, bool) {
	if m.cycle != nil {
		return m.cycle.PauseDue(token)
	}
	return m.runner.PauseDue(token)
}

func (m *Model) phase() trial.Phase {
	if m.cycle != nil {
		return m.cycle.Phase()
	}
	return m.runner.Phase()
}

func (m *Model) state() trial.State {
	if m.cycle != nil {
		return m.cycle.State()
	}
	return m.runner.State()
}

func (m *Model) kind() model.Kind {
	if m.cycle != nil {
		return model.KindTesterVisual
	}
	return m.runner.Config().Kind
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderBody() string {
	if m.phase() == trial.PhaseDone {
		return m.renderDone()
	}
	lines := []string{m.renderHeader(), "", m.renderStimulus(), ""}
	switch {
	case m.feedback != "":
		lines = append(lines, feedbackStyle.Render(m.feedback))
	case m.hasSample && m.state() == trial.StateScored:
		lines = append(lines, promptStyle.Render(fmt.Sprintf("%.0f ms", m.lastSample)))
	default:
		lines = append(lines, dimStyle.Render(m.prompt()))
	}
	lines = append(lines, "", dimStyle.Render("Space to respond · Esc to stop"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	if m.cycle != nil {
		return promptStyle.Render(fmt.Sprintf("Color %d/%d: %s · Trial %d/%d",
			m.cycle.ColorIndex()+1, m.cycle.ColorCount(), m.cycle.Color(),
			m.cycle.Trial(), m.cycle.Trials()))
	}
	cfg := m.runner.Config()
	return promptStyle.Render(fmt.Sprintf("%s · Trial %d/%d", cfg.Kind, m.runner.Trial(), m.runner.Trials()))
}

func (m *Model) renderStimulus() string {
	box := lipgloss.NewStyle().Width(24).Height(5)
	if !m.kind().Visual() {
		label := "..."
		if m.state() == trial.StateLive {
			label = "BEEP"
		}
		return box.Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.RoundedBorder()).Render(label)
	}
	var bg string
	if m.cycle != nil {
		if m.state() == trial.StateLive {
			bg = m.cycle.Color()
		} else {
			bg = "white"
		}
	} else {
		cfg := m.runner.Config()
		if m.state() == trial.StateLive {
			bg = cfg.StimulusColor
		} else {
			bg = cfg.InitialColor
		}
	}
	return box.Background(colorFor(bg)).Render("")
}

func (m *Model) prompt() string {
	switch m.state() {
	case trial.StateLive:
		return "NOW!"
	case trial.StateScored:
		return "Get ready..."
	default:
		return "Wait for it..."
	}
}

func (m *Model) renderDone() string {
	lines := []string{promptStyle.Render("Session complete")}
	if m.cycle == nil {
		results := m.runner.Results()
		agg := statsPkg.Summarize([]model.HistoryRecord{{Results: results}})
		lines = append(lines,
			dimStyle.Render(fmt.Sprintf("Trials: %d", agg.Trials)),
			dimStyle.Render(fmt.Sprintf("Average: %.1f ms", agg.Mean)),
			dimStyle.Render(fmt.Sprintf("Best: %.1f ms", agg.Min)))
	}
	if m.saveErr != nil {
		lines = append(lines, feedbackStyle.Render(fmt.Sprintf("not saved: %v", m.saveErr)))
	}
	lines = append(lines, "", dimStyle.Render("Enter to exit"))
	return strings.Join(lines, "\n")
}

func (m *Model) loadFooterStats(kind model.Kind) {
	ctx := context.Background()
	records, err := m.store.LoadAll(ctx)
	if err != nil {
		logErrf("failed to load history: %v\n", err)
		return
	}
	var matched []model.HistoryRecord
	for _, rec := range records {
		if rec.Kind == kind {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return
	}
	m.lastAvg = matched[len(matched)-1].Average()
	m.hasLast = true
	agg := statsPkg.Summarize(matched)
	m.allAvg = agg.Mean
	m.allN = agg.Trials
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f ms", m.lastAvg))
	}
	if m.allN > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f ms over %d trials", m.allAvg, m.allN))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// ring emits a terminal bell for the audio stimulus.
func ring() {
	if _, err := fmt.Fprint(os.Stderr, "\a"); err != nil {
		// Best-effort bell.
		_ = err
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
