package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/cutscene/internal/config"
	"github.com/OCAP2/cutscene/internal/cutscene"
	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/internal/library"
	"github.com/OCAP2/cutscene/internal/logging"
	"github.com/OCAP2/cutscene/internal/monitor"
	"github.com/OCAP2/cutscene/internal/storage"
	"github.com/OCAP2/cutscene/pkg/core"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSessionActive is returned when a cutscene is started while another plays.
	ErrSessionActive = errors.New("a cutscene is already playing")
	// ErrNoSession is returned by session commands when nothing is playing.
	ErrNoSession = errors.New("no cutscene is playing")
	// ErrNoView is returned when the death camera found no position with a view of the target.
	ErrNoView = errors.New("no death camera view found")
)

// FinishedCallback is the function name of the notification sent when a session ends.
const FinishedCallback = ":CUTSCENE:FINISHED:"

// DeathCamName is the session name of death camera playbacks.
const DeathCamName = "deathcam"

var subtitleBackground = engine.HUDRect{X: 0.1, Y: 0.88, Width: 0.8, Height: 0.08, Color: 0x000000, Alpha: 0.5}

// Telemetry receives a summary of every finished session.
type Telemetry interface {
	WritePlayback(r core.PlaybackRecord) error
}

// Notifier pushes an asynchronous message back to the host.
type Notifier func(function string, data string) error

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Registry       *library.Registry
	Backend        storage.Backend
	Telemetry      Telemetry
	Logger         *slog.Logger
	Attrs          *logging.Attrs
	Meter          metric.Meter
	Notify         Notifier
	Playback       config.PlaybackConfig
	DefinitionsDir string
	StorageType    string

	// LineOfSight decides death camera visibility. Defaults to GroundLOS.
	LineOfSight engine.LOSFunc
	Rand        *rand.Rand
	Now         func() time.Time
}

// Manager owns the active cutscene session and the commands that drive it.
type Manager struct {
	deps Dependencies

	mu      sync.Mutex
	session *cutscene.Session
	player  engine.PlayerState

	started  metric.Int64Counter
	finished metric.Int64Counter
	tickTime metric.Float64Histogram
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Registry == nil {
		deps.Registry = library.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Meter == nil {
		deps.Meter = noop.Meter{}
	}
	if deps.LineOfSight == nil {
		deps.LineOfSight = GroundLOS
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	m := &Manager{deps: deps, player: engine.PlayerState{Health: 1}}

	var err error
	if m.started, err = deps.Meter.Int64Counter("cutscene.playbacks.started",
		metric.WithDescription("Cutscene sessions started")); err != nil {
		return nil, fmt.Errorf("failed to create started counter: %w", err)
	}
	if m.finished, err = deps.Meter.Int64Counter("cutscene.playbacks.finished",
		metric.WithDescription("Cutscene sessions finished, by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create finished counter: %w", err)
	}
	if m.tickTime, err = deps.Meter.Float64Histogram("cutscene.tick.dt",
		metric.WithDescription("Host frame time fed to the active session"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create tick histogram: %w", err)
	}
	return m, nil
}

// GroundLOS treats the terrain as the plane z = 0: a view is blocked when
// either end lies below it.
func GroundLOS(from, to mgl64.Vec3) bool {
	return from.Z() >= 0 && to.Z() >= 0
}

// Registry returns the definition cache the manager plays from.
func (m *Manager) Registry() *library.Registry {
	return m.deps.Registry
}

func (m *Manager) interpDefaults() interp.Options {
	return interp.Options{
		SecondsPerMarker: m.deps.Playback.SecondsPerMarker,
		MaxStep:          m.deps.Playback.MaxStep,
	}
}

// Play starts the named cutscene. orientation, when set, is the player's
// yaw, pitch and roll to restore during playback.
func (m *Manager) Play(name string, orientation *[3]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return fmt.Errorf("%w: %s", ErrSessionActive, m.session.Name())
	}
	def, ok := m.deps.Registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", library.ErrNotFound, name)
	}
	root, err := library.Build(def, m.interpDefaults())
	if err != nil {
		return err
	}
	if m.deps.Playback.SubtitleBackground {
		bg := subtitleBackground
		root.Background = &bg
	}
	if orientation != nil {
		m.player.Yaw, m.player.Pitch, m.player.Roll = orientation[0], orientation[1], orientation[2]
	}

	m.startLocked(cutscene.NewSession(name, root, m.player, m.deps.LineOfSight, cutscene.WithClock(m.deps.Now)))
	return nil
}

// DeathCam replaces any active session with a death camera framing target.
func (m *Manager) DeathCam(target mgl64.Vec3) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	probe := engine.NewFrame(m.player, m.deps.LineOfSight)
	root, ok := cutscene.DeathCamera(probe, target, m.deps.Rand)
	if !ok {
		return ErrNoView
	}
	if m.session != nil {
		m.session.Stop()
		m.finishLocked()
	}
	m.player.Health = 0

	m.startLocked(cutscene.NewSession(DeathCamName, root, m.player, m.deps.LineOfSight,
		cutscene.AsDeathCam(), cutscene.WithClock(m.deps.Now)))
	return nil
}

func (m *Manager) startLocked(s *cutscene.Session) {
	s.Start()
	m.session = s
	m.started.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cutscene", s.Name())))
	if m.deps.Attrs != nil {
		m.deps.Attrs.Set("cutscene", s.Name())
	}
	m.deps.Logger.Info("Cutscene started", "cutscene", s.Name())
}

// Tick advances the active session by dt seconds with the player's health
// as reported by the host.
func (m *Manager) Tick(dt float64, editing bool, health float64) (engine.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return engine.Snapshot{}, ErrNoSession
	}
	m.player.Health = health
	return m.tickLocked(dt, editing), nil
}

// Advance is Tick with the last health the manager knows of.
func (m *Manager) Advance(dt float64, editing bool) (engine.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return engine.Snapshot{}, ErrNoSession
	}
	return m.tickLocked(dt, editing), nil
}

func (m *Manager) tickLocked(dt float64, editing bool) engine.Snapshot {
	m.tickTime.Record(context.Background(), dt)

	snap := m.session.Tick(m.player, editing, dt)
	if snap.Orientation != nil {
		m.player.Yaw, m.player.Pitch, m.player.Roll = snap.Orientation[0], snap.Orientation[1], snap.Orientation[2]
	}
	if snap.Done {
		m.finishLocked()
	}
	return snap
}

// Cancel asks the active session to end. It reports whether the session
// accepted the request.
func (m *Manager) Cancel() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return false, ErrNoSession
	}
	return m.session.Cancel(), nil
}

// Stop ends the active session immediately.
func (m *Manager) Stop() (core.PlaybackRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return core.PlaybackRecord{}, ErrNoSession
	}
	m.session.Stop()
	return m.finishLocked(), nil
}

// finishLocked closes the session and reports its playback record.
func (m *Manager) finishLocked() core.PlaybackRecord {
	s := m.session
	m.session = nil
	s.Close()
	rec := s.Record()

	if m.deps.Attrs != nil {
		m.deps.Attrs.Unset("cutscene")
	}
	m.finished.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("cutscene", rec.Cutscene),
		attribute.String("outcome", rec.Outcome()),
	))
	m.deps.Logger.Info("Cutscene finished",
		"cutscene", rec.Cutscene, "outcome", rec.Outcome(), "ticks", rec.Ticks, "elapsed", rec.Elapsed)

	if m.deps.Backend != nil {
		if err := m.deps.Backend.RecordPlayback(context.Background(), rec); err != nil {
			m.deps.Logger.Error("Failed to record playback", "cutscene", rec.Cutscene, "error", err)
		}
	}
	if m.deps.Telemetry != nil {
		if err := m.deps.Telemetry.WritePlayback(rec); err != nil {
			m.deps.Logger.Warn("Failed to write playback telemetry", "cutscene", rec.Cutscene, "error", err)
		}
	}
	m.notify(FinishedCallback, rec)
	return rec
}

func (m *Manager) notify(function string, payload any) {
	if m.deps.Notify == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		m.deps.Logger.Error("Failed to encode callback", "function", function, "error", err)
		return
	}
	if err := m.deps.Notify(function, string(data)); err != nil {
		m.deps.Logger.Warn("Failed to send callback", "function", function, "error", err)
	}
}

// Active returns the name of the playing cutscene, if any.
func (m *Manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", false
	}
	return m.session.Name(), true
}

// State reports the manager for the status monitor.
func (m *Manager) State() monitor.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := monitor.State{
		Definitions: m.deps.Registry.Len(),
		StorageType: m.deps.StorageType,
	}
	if m.session != nil {
		st.ActiveCutscene = m.session.Name()
		st.SessionTicks = m.session.Record().Ticks
	}
	if p, ok := m.deps.Backend.(interface{ Pending() int }); ok {
		st.PendingWrites = p.Pending()
	}
	return st
}

// Define validates def and stores it in the registry and the backend.
func (m *Manager) Define(ctx context.Context, def core.Definition, source string) error {
	if err := library.Validate(def); err != nil {
		return err
	}
	m.deps.Registry.Put(def, source)
	if m.deps.Backend == nil {
		return nil
	}
	return m.deps.Backend.SaveCutscene(ctx, def, source)
}

// LoadStored adds cutscenes kept by the backend that no file provides.
func (m *Manager) LoadStored(ctx context.Context) (int, error) {
	if m.deps.Backend == nil {
		return 0, nil
	}
	defs, err := m.deps.Backend.LoadCutscenes(ctx)
	n := 0
	for _, def := range defs {
		if _, ok := m.deps.Registry.Get(def.Name); ok {
			continue
		}
		m.deps.Registry.Put(def, "")
		n++
	}
	return n, err
}

// ReloadResult summarises a definitions directory reload.
type ReloadResult struct {
	Loaded  int      `json:"loaded"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

// Reload rereads the definitions directory. Files that fail to load keep
// their previous version in the registry; cutscenes whose file is gone are
// removed.
func (m *Manager) Reload(ctx context.Context) (ReloadResult, error) {
	res := ReloadResult{Removed: []string{}, Failed: []string{}}
	if m.deps.DefinitionsDir == "" {
		return res, errors.New("definitions directory not configured")
	}
	if _, err := os.Stat(m.deps.DefinitionsDir); err != nil {
		return res, fmt.Errorf("read definitions dir: %w", err)
	}

	entries, loadErr := library.LoadDir(m.deps.DefinitionsDir)
	res.Failed = append(res.Failed, unjoin(loadErr)...)

	for _, e := range entries {
		m.deps.Registry.Put(e.Definition, e.Source)
		if m.deps.Backend == nil {
			continue
		}
		if err := m.deps.Backend.SaveCutscene(ctx, e.Definition, e.Source); err != nil {
			res.Failed = append(res.Failed, err.Error())
		}
	}
	res.Loaded = len(entries)

	for _, name := range m.deps.Registry.Names() {
		e, _ := m.deps.Registry.Entry(name)
		if e.Source == "" {
			continue
		}
		if _, err := os.Stat(e.Source); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		m.deps.Registry.Delete(name)
		res.Removed = append(res.Removed, name)
		if m.deps.Backend == nil {
			continue
		}
		if err := m.deps.Backend.DeleteCutscene(ctx, name); err != nil {
			res.Failed = append(res.Failed, err.Error())
		}
	}

	m.deps.Logger.Info("Definitions reloaded",
		"dir", m.deps.DefinitionsDir, "loaded", res.Loaded, "removed", len(res.Removed), "failed", len(res.Failed))
	return res, nil
}

func unjoin(err error) []string {
	if err == nil {
		return nil
	}
	j, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(j.Unwrap()))
	for _, e := range j.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}

// Watch applies hot-reload changes to the backend until the watcher closes.
func (m *Manager) Watch(w *library.Watcher) {
	for c := range w.Changes() {
		ctx := context.Background()
		switch {
		case c.Err != nil:
			m.deps.Logger.Warn("Cutscene file rejected", "path", c.Path, "error", c.Err)
		case c.Loaded != "":
			m.deps.Logger.Info("Cutscene file reloaded", "path", c.Path, "cutscene", c.Loaded)
			if m.deps.Backend == nil {
				continue
			}
			if def, ok := m.deps.Registry.Get(c.Loaded); ok {
				if err := m.deps.Backend.SaveCutscene(ctx, def, c.Path); err != nil {
					m.deps.Logger.Error("Failed to store cutscene", "cutscene", c.Loaded, "error", err)
				}
			}
		}
		for _, name := range c.Removed {
			m.deps.Logger.Info("Cutscene removed", "path", c.Path, "cutscene", name)
			if m.deps.Backend == nil {
				continue
			}
			if err := m.deps.Backend.DeleteCutscene(ctx, name); err != nil {
				m.deps.Logger.Error("Failed to delete cutscene", "cutscene", name, "error", err)
			}
		}
	}
}

// Flush persists buffered playbacks and telemetry concurrently.
func (m *Manager) Flush(ctx context.Context, extra ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if m.deps.Backend != nil {
		g.Go(func() error { return m.deps.Backend.Flush(ctx) })
	}
	if f, ok := m.deps.Telemetry.(interface{ Flush() error }); ok {
		g.Go(f.Flush)
	}
	for _, fn := range extra {
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}

// Close stops any active session, recording it.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Stop()
		m.finishLocked()
	}
}
