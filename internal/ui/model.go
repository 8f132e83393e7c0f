// ABOUTME: Bubbletea model for the bedside monitor TUI
// ABOUTME: Drives the playback controller from a frame tick and renders the panels
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pulsemon/pulsemon-go/internal/playback"
)

const (
	frameInterval = time.Second / 30
	speedStep     = 0.25
)

// Clicker receives one call per beat entering the window. The beeper
// satisfies it; a nil Clicker disables sound.
type Clicker interface {
	Click()
}

// Model holds the TUI state. All playback mutation happens here, on the
// bubbletea update goroutine, which keeps the controller single-threaded.
type Model struct {
	ctrl    *playback.Controller
	clicker Clicker

	frame    playback.Frame
	lastTick time.Time
	lastBeat float64
	hasBeat  bool

	width    int
	height   int
	quitting bool
}

type frameMsg time.Time

// NewModel wires a controller into the TUI. clicker may be nil.
func NewModel(ctrl *playback.Controller, clicker Clicker) Model {
	return Model{ctrl: ctrl, clicker: clicker}
}

func (m Model) Init() tea.Cmd {
	return frameTick()
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		now := time.Time(msg)
		elapsed := frameInterval.Seconds()
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick).Seconds()
		}
		m.lastTick = now

		m.frame = m.ctrl.Tick(elapsed)
		m.clickOnNewBeat()

		return m, frameTick()
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		if m.ctrl.State() == playback.Playing {
			m.ctrl.Pause()
		} else {
			m.ctrl.Play()
		}
	case "+", "=":
		m.ctrl.SetSpeed(m.ctrl.Speed() + speedStep)
	case "-", "_":
		m.ctrl.SetSpeed(m.ctrl.Speed() - speedStep)
	case "l":
		m.ctrl.SetLooping(!m.ctrl.Looping())
	}

	return m, nil
}

// clickOnNewBeat fires the clicker when the newest beat in the window
// changes. Comparing for inequality rather than ordering keeps it
// correct across a loop wrap, where timestamps restart low.
func (m *Model) clickOnNewBeat() {
	if len(m.frame.Beats) == 0 {
		return
	}
	newest := m.frame.Beats[len(m.frame.Beats)-1].Time
	if m.hasBeat && newest == m.lastBeat {
		return
	}
	fresh := m.hasBeat
	m.lastBeat = newest
	m.hasBeat = true
	if fresh && m.clicker != nil && m.frame.Playing {
		m.clicker.Click()
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	waveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down monitor...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Pulsemon Monitor"))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderWaveforms())
	b.WriteString("\n")
	b.WriteString(m.renderVitals())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  +/-:Speed  l:Loop  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderStatus() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Source: "))
	b.WriteString(valueStyle.Render(m.frame.Source.String()))
	if m.ctrl.LastLoadError() != nil {
		b.WriteString(alertStyle.Render("  (load failed, synthetic fallback)"))
	}
	b.WriteString("\n")

	state := "paused"
	if m.frame.Playing {
		state = "playing"
	}
	loop := ""
	if m.ctrl.Looping() {
		loop = "  loop"
	}
	b.WriteString(headerStyle.Render("Playback: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %.1fs / %.1fs  %.2fx%s",
		state, m.frame.Cursor, m.frame.Duration, m.ctrl.Speed(), loop)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderWaveforms() string {
	width := m.width - 10
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for _, ch := range m.frame.Channels {
		values := make([]float64, len(ch.Samples))
		for i, s := range ch.Samples {
			values[i] = s.Value
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s", ch.Label)))
		b.WriteString(waveStyle.Render(sparkline(values, width)))
		b.WriteString("\n")
	}
	if len(m.frame.Channels) == 0 {
		b.WriteString(valueStyle.Render("  No signal"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderVitals() string {
	v := m.frame.Vitals

	hrTag := "sim"
	if v.HeartRateFromBeats {
		hrTag = "ecg"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("HR: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%3.0f bpm (%s)   ", v.HeartRate, hrTag)))
	b.WriteString(headerStyle.Render("SpO2: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%4.1f%%   ", v.SpO2)))
	b.WriteString(headerStyle.Render("Resp: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%4.1f /min", v.RespRate)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("NIBP: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%3.0f/%-3.0f (MAP %3.0f)   ",
		v.Systolic, v.Diastolic, v.MeanArterial)))
	b.WriteString(headerStyle.Render("Temp: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%4.1f°C core  %4.1f°C skin",
		v.TempCore, v.TempSkin)))
	b.WriteString("\n")

	return b.String()
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline folds samples into width columns of block characters. Each
// column is the mean of its bucket, scaled against the slice's own
// min/max so the trace always uses the full glyph range.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo

	out := make([]rune, width)
	for col := 0; col < width; col++ {
		i0 := col * len(values) / width
		i1 := (col + 1) * len(values) / width
		if i1 <= i0 {
			i1 = i0 + 1
		}
		if i1 > len(values) {
			i1 = len(values)
		}

		sum := 0.0
		for _, v := range values[i0:i1] {
			sum += v
		}
		mean := sum / float64(i1-i0)

		level := 0
		if span > 0 {
			level = int((mean - lo) / span * float64(len(sparkLevels)-1))
		}
		out[col] = sparkLevels[level]
	}

	return string(out)
}
