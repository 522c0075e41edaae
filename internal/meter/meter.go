// Package meter is a read-only bubbletea VU-meter/transport display: it
// polls the engine's RMS and transport state at a steady UI rate and
// renders vertical level bars, one per track, the way the teacher's own
// mixer view does for its editable bars, minus the editing.
package meter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/schollz/tracksampler/internal/engine"
)

const barHeight = 12
const refreshFPS = 30

// Source is the engine state the meter reads. Kept narrow so tests can
// drive the model with a fake instead of a real engine.
type Source interface {
	MasterRMS() engine.RMS
	TrackCount() int
	TrackRMS(index int) engine.RMS
	CurrentLine() int
	Playing() bool
	BPM() float64
}

// EngineSource adapts *engine.Engine to the Source interface.
type EngineSource struct {
	Engine *engine.Engine
}

func (s EngineSource) MasterRMS() engine.RMS { return s.Engine.MasterRMS() }
func (s EngineSource) TrackCount() int       { return len(s.Engine.Tracks) }
func (s EngineSource) TrackRMS(index int) engine.RMS {
	return s.Engine.Tracks[index].RMS()
}
func (s EngineSource) CurrentLine() int { return s.Engine.Transport.CurrentLine() }
func (s EngineSource) Playing() bool    { return s.Engine.Transport.Playing }
func (s EngineSource) BPM() float64     { return s.Engine.Transport.BPM }

type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Second/refreshFPS, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Model is the bubbletea program model for the meter view.
type Model struct {
	source Source
	quit   key.Binding
}

// New builds a meter Model reading from source.
func New(source Source) Model {
	return Model{
		source: source,
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			return m, tea.Quit
		}
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	playState := "stopped"
	if m.source.Playing() {
		playState = "playing"
	}
	fmt.Fprintf(&b, "line %4d  %-8s  %.1f bpm\n\n", m.source.CurrentLine(), playState, m.source.BPM())

	n := m.source.TrackCount()
	bars := make([][]string, n)
	for i := 0; i < n; i++ {
		bars[i] = verticalBar(m.source.TrackRMS(i), barHeight)
	}
	masterBar := verticalBar(m.source.MasterRMS(), barHeight)

	for row := 0; row < barHeight; row++ {
		for i := 0; i < n; i++ {
			b.WriteString(bars[i][row])
			b.WriteString(" ")
		}
		b.WriteString(" ")
		b.WriteString(masterBar[row])
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%-3s", fmt.Sprintf("%d", i+1))
	}
	b.WriteString(" master\n")

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

// verticalBar renders one channel's RMS (averaged across L/R) as a
// bottom-up Unicode block column, the same visual language as the
// teacher's mixer level bars.
func verticalBar(rms engine.RMS, height int) []string {
	level := (float64(rms.L) + float64(rms.R)) / 2
	db := rmsToDB(level)
	pos := dbToBarPos(db, height)

	lines := make([]string, height)
	profile := termenv.ColorProfile()
	fill, _ := colorful.Hex("#C0C0C0")
	empty, _ := colorful.Hex("#404040")

	for row := 0; row < height; row++ {
		displayRow := float64(height - 1 - row)
		var content string
		var color colorful.Color
		if displayRow < pos {
			content = "██"
			color = fill
		} else if displayRow >= pos && displayRow < pos+1 {
			content = unicodeBlock(pos - math.Floor(pos))
			color = fill
		} else {
			content = "▒▒"
			color = empty
		}
		term := profile.Color(color.Hex())
		lines[row] = termenv.String(content).Foreground(term).String()
	}
	return lines
}

func unicodeBlock(fillRatio float64) string {
	switch {
	case fillRatio <= 0:
		return "  "
	case fillRatio <= 0.125:
		return "▁▁"
	case fillRatio <= 0.25:
		return "▂▂"
	case fillRatio <= 0.375:
		return "▃▃"
	case fillRatio <= 0.5:
		return "▄▄"
	case fillRatio <= 0.625:
		return "▅▅"
	case fillRatio <= 0.75:
		return "▆▆"
	case fillRatio <= 0.875:
		return "▇▇"
	default:
		return "██"
	}
}

// rmsToDB converts a linear RMS amplitude to dB, clamped at -96dB for
// silence rather than returning -Inf.
func rmsToDB(level float64) float64 {
	if level <= 0 {
		return -96
	}
	return 20 * math.Log10(level)
}

// dbToBarPos maps a -48..+12 dB range onto a 0..height bar position, the
// same 60dB window the teacher's mixer uses.
func dbToBarPos(db float64, height int) float64 {
	pos := (db + 48.0) / 60.0 * float64(height)
	if pos < 0 {
		pos = 0
	}
	if pos > float64(height) {
		pos = float64(height)
	}
	return pos
}
