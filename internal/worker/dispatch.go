package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/cutscene/internal/dispatcher"
	"github.com/OCAP2/cutscene/internal/geo"
	"github.com/OCAP2/cutscene/internal/library"
	"github.com/OCAP2/cutscene/internal/parser"
	"github.com/OCAP2/cutscene/internal/util"
	"github.com/OCAP2/cutscene/pkg/core"
)

const defaultHistoryLimit = 20

// RegisterHandlers registers all cutscene commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) error {
	handlers := []struct {
		command string
		h       dispatcher.HandlerFunc
		opts    []dispatcher.Option
	}{
		// Definitions
		{":CUTSCENE:DEFINE:", m.handleDefine, []dispatcher.Option{dispatcher.Logged()}},
		{":CUTSCENE:DEFINE:YAML:", m.handleDefineYAML, []dispatcher.Option{dispatcher.Logged()}},
		{":CUTSCENE:LIST:", m.handleList, nil},
		{":CUTSCENE:INFO:", m.handleInfo, nil},
		{":CUTSCENE:RELOAD:", m.handleReload, []dispatcher.Option{dispatcher.Logged()}},

		// Session lifecycle
		{":CUTSCENE:PLAY:", m.handlePlay, []dispatcher.Option{dispatcher.Logged()}},
		{":CUTSCENE:DEATHCAM:", m.handleDeathCam, []dispatcher.Option{dispatcher.Logged()}},
		{":CUTSCENE:CLICK:", m.handleClick, []dispatcher.Option{dispatcher.Logged()}},
		{":CUTSCENE:STOP:", m.handleStop, []dispatcher.Option{dispatcher.Logged()}},

		// Per-frame, not logged
		{":CUTSCENE:TICK:", m.handleTick, nil},

		{":CUTSCENE:HISTORY:", m.handleHistory, nil},
	}

	for _, r := range handlers {
		if err := d.Register(r.command, r.h, r.opts...); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.command, err)
		}
	}
	return nil
}

func (m *Manager) handleDefine(e dispatcher.Event) (any, error) {
	def, err := parser.ParseDefineArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cutscene: %w", err)
	}
	if err := m.Define(context.Background(), def, ""); err != nil {
		return nil, fmt.Errorf("failed to define cutscene: %w", err)
	}
	return def.Name, nil
}

func (m *Manager) handleDefineYAML(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: expected 1 argument, got %d", parser.ErrArgCount, len(e.Args))
	}
	def, err := library.Parse([]byte(util.FixEscapeQuotes(util.TrimQuotes(e.Args[0]))))
	if err != nil {
		return nil, err
	}
	if err := m.Define(context.Background(), def, ""); err != nil {
		return nil, fmt.Errorf("failed to define cutscene: %w", err)
	}
	return def.Name, nil
}

func (m *Manager) handleList(_ dispatcher.Event) (any, error) {
	return m.deps.Registry.Names(), nil
}

// Info describes a registered cutscene.
type Info struct {
	Name        string            `json:"name"`
	Source      string            `json:"source,omitempty"`
	Cancellable bool              `json:"cancellable"`
	Steps       int               `json:"steps"`
	Markers     int               `json:"markers"`
	Subtitles   int               `json:"subtitles"`
	Path        *geo.PathGeometry `json:"path,omitempty"`
}

func (m *Manager) handleInfo(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: expected 1 argument, got %d", parser.ErrArgCount, len(args))
	}
	entry, ok := m.deps.Registry.Entry(strings.TrimSpace(args[0]))
	if !ok {
		return nil, fmt.Errorf("%w: %s", library.ErrNotFound, args[0])
	}
	return describe(entry.Definition, entry.Source)
}

func describe(def core.Definition, source string) (Info, error) {
	info := Info{
		Name:        def.Name,
		Source:      source,
		Cancellable: def.Cancellable,
		Steps:       len(def.Steps),
		Markers:     def.MarkerCount(),
		Subtitles:   len(def.Subtitles),
	}
	g, err := geo.Describe(def.PathPoints())
	switch {
	case errors.Is(err, geo.ErrEmptyPath):
	case err != nil:
		return info, fmt.Errorf("cutscene %q: %w", def.Name, err)
	default:
		info.Path = &g
	}
	return info, nil
}

func (m *Manager) handleReload(_ dispatcher.Event) (any, error) {
	return m.Reload(context.Background())
}

func (m *Manager) handlePlay(e dispatcher.Event) (any, error) {
	args, err := parser.ParsePlayArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse play: %w", err)
	}
	if err := m.Play(args.Name, args.Orientation); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *Manager) handleDeathCam(e dispatcher.Event) (any, error) {
	args, err := parser.ParseDeathCamArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse death camera: %w", err)
	}
	if err := m.DeathCam(args.Target); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *Manager) handleTick(e dispatcher.Event) (any, error) {
	args, err := parser.ParseTickArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick: %w", err)
	}
	if args.Health == nil {
		return m.Advance(args.Dt, args.Editing)
	}
	return m.Tick(args.Dt, args.Editing, *args.Health)
}

func (m *Manager) handleClick(_ dispatcher.Event) (any, error) {
	return m.Cancel()
}

func (m *Manager) handleStop(_ dispatcher.Event) (any, error) {
	return m.Stop()
}

// handleHistory returns recent playbacks, newest first. Args are an
// optional cutscene name and an optional limit.
func (m *Manager) handleHistory(e dispatcher.Event) (any, error) {
	if m.deps.Backend == nil {
		return []core.PlaybackRecord{}, nil
	}
	args := util.CleanArgs(e.Args)
	name, limit := "", defaultHistoryLimit
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return nil, fmt.Errorf("error parsing limit: %w", err)
		}
		limit = n
	}
	return m.deps.Backend.Playbacks(context.Background(), name, limit)
}
