package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/internal/cutscene"
	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/internal/geo"
	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/internal/library"
	"github.com/OCAP2/cutscene/pkg/core"
)

const (
	frameInterval = time.Second / 25
	mapWidth      = 60
	mapHeight     = 16
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// model previews one definition. Every tick message advances the session
// by one fixed frame.
type model struct {
	def     core.Definition
	opts    interp.Options
	path    []mgl64.Vec3
	bounds  *geo.Bounds
	session *cutscene.Session
	snap    engine.Snapshot

	paused  bool
	editing bool
	status  string
}

func newModel(def core.Definition, opts interp.Options) (model, error) {
	m := model{def: def, opts: opts, path: def.PathPoints()}
	g, err := geo.Describe(m.path)
	switch {
	case errors.Is(err, geo.ErrEmptyPath):
	case err != nil:
		return m, err
	default:
		m.bounds = &g.Bounds
	}
	if err := m.restart(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *model) restart() error {
	root, err := library.Build(m.def, m.opts)
	if err != nil {
		return err
	}
	m.session = cutscene.NewSession(m.def.Name, root, engine.PlayerState{Health: 1}, nil)
	m.session.Start()
	m.snap = engine.Snapshot{}
	m.editing = false
	m.status = "playing"
	return nil
}

// Init implements tea.Model interface.
func (m model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model interface.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.paused && !m.snap.Done {
			m.snap = m.session.Tick(engine.PlayerState{Health: 1}, m.editing, frameInterval.Seconds())
			if m.snap.Done {
				m.status = m.session.Record().Outcome()
			}
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.session.Close()
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
			if m.paused {
				m.status = "paused"
			} else if !m.snap.Done {
				m.status = "playing"
			}
		case "c":
			if m.session.Cancel() {
				m.status = "cancelling"
			} else {
				m.status = "not cancellable"
			}
		case "e":
			m.editing = !m.editing
		case "r":
			m.session.Close()
			if err := m.restart(); err != nil {
				m.status = err.Error()
			}
			m.paused = false
		}
	}
	return m, nil
}

// View implements tea.Model interface.
func (m model) View() string {
	var b strings.Builder
	rec := m.session.Record()

	fmt.Fprintf(&b, "Cutscene %s (%s)\n", m.def.Name, m.status)
	fmt.Fprintf(&b, "t=%.2fs ticks=%d cancellable=%v editing=%v\n\n", rec.Elapsed, rec.Ticks, m.def.Cancellable, m.editing)

	if m.snap.Camera != nil {
		c := m.snap.Camera
		fmt.Fprintf(&b, "camera   [%.1f %.1f %.1f] yaw %.1f pitch %.1f\n", c[0], c[1], c[2], c[3], c[4])
	} else {
		b.WriteString("camera   player view\n")
	}
	fmt.Fprintf(&b, "hud %v  crosshair %v  canMove %v\n\n", m.snap.HUD, m.snap.Crosshair, m.snap.CanMove)

	b.WriteString(m.renderMap())
	b.WriteString("\n")

	for _, s := range m.snap.Subtitles {
		fmt.Fprintf(&b, "  %q\n", s.Text)
	}

	b.WriteString("\n(space pause, c cancel, e toggle editor, r restart, q quit)")
	return b.String()
}

// renderMap draws the path top-down with the camera marked '@'.
func (m model) renderMap() string {
	if m.bounds == nil {
		return ""
	}
	grid := make([][]rune, mapHeight)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", mapWidth))
	}
	plot := func(p mgl64.Vec3, r rune) {
		col, row := m.cell(p)
		grid[row][col] = r
	}
	for _, p := range m.path {
		plot(p, '.')
	}
	if m.snap.Camera != nil {
		plot(mgl64.Vec3{m.snap.Camera[0], m.snap.Camera[1], m.snap.Camera[2]}, '@')
	}

	var b strings.Builder
	b.WriteString("+" + strings.Repeat("-", mapWidth) + "+\n")
	for i := len(grid) - 1; i >= 0; i-- {
		b.WriteString("|" + string(grid[i]) + "|\n")
	}
	b.WriteString("+" + strings.Repeat("-", mapWidth) + "+\n")
	return b.String()
}

func (m model) cell(p mgl64.Vec3) (col, row int) {
	scale := func(v, lo, hi float64, n int) int {
		if hi-lo < 1e-9 {
			return n / 2
		}
		i := int((v - lo) / (hi - lo) * float64(n-1))
		return max(0, min(n-1, i))
	}
	return scale(p.X(), m.bounds.Min.X(), m.bounds.Max.X(), mapWidth),
		scale(p.Y(), m.bounds.Min.Y(), m.bounds.Max.Y(), mapHeight)
}
