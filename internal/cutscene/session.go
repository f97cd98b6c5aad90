package cutscene

import (
	"math"
	"time"

	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Session plays one root action against a Frame. It is not safe for
// concurrent use.
type Session struct {
	name     string
	root     Action
	frame    *engine.Frame
	deathCam bool

	started   bool
	finished  bool
	stopped   bool
	ticks     uint
	elapsed   float64
	maxDt     float64
	startedAt time.Time
	endedAt   time.Time

	now func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// AsDeathCam marks the session as a death camera in its playback record.
func AsDeathCam() SessionOption {
	return func(s *Session) { s.deathCam = true }
}

// WithClock overrides the wall clock used for the playback record.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session for root. player seeds the frame before the
// first tick.
func NewSession(name string, root Action, player engine.PlayerState, los engine.LOSFunc, opts ...SessionOption) *Session {
	s := &Session{
		name:  name,
		root:  root,
		frame: engine.NewFrame(player, los),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the cutscene name.
func (s *Session) Name() string { return s.name }

// Frame returns the host the session drives.
func (s *Session) Frame() *engine.Frame { return s.frame }

// Done reports whether the root action has finished.
func (s *Session) Done() bool { return s.finished }

// Start starts the root action. Tick calls it when needed.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.startedAt = s.now()
	s.root.Start(s.frame)
}

// Tick advances playback by dt host seconds and returns the effects of the
// tick. After the session is done it keeps returning a done snapshot with
// every override released.
func (s *Session) Tick(player engine.PlayerState, editing bool, dt float64) engine.Snapshot {
	s.frame.BeginTick(player, editing)
	if s.finished {
		snap := s.frame.Snapshot()
		snap.Done = true
		return snap
	}
	s.Start()

	if !math.IsNaN(dt) && dt > s.maxDt {
		s.maxDt = dt
	}
	if dt > 0 {
		s.elapsed += dt
	}
	s.ticks++

	if s.root.Tick(s.frame, dt) {
		s.finish()
	}
	snap := s.frame.Snapshot()
	snap.Done = s.finished
	return snap
}

// Cancel asks a cancellable root to end. It reports whether the request was
// accepted.
func (s *Session) Cancel() bool {
	c, ok := s.root.(Canceller)
	if !ok || s.finished {
		return false
	}
	return c.Cancel()
}

// Stop ends the session immediately, releasing every override.
func (s *Session) Stop() {
	if s.finished {
		return
	}
	s.stopped = true
	s.finish()
}

// Close releases everything the session holds. It is idempotent.
func (s *Session) Close() {
	s.finish()
}

func (s *Session) finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.endedAt = s.now()
	if s.started {
		s.root.Finish(s.frame)
	}
}

// Record summarises the session for storage.
func (s *Session) Record() core.PlaybackRecord {
	r := core.PlaybackRecord{
		Cutscene:   s.name,
		StartedAt:  s.startedAt,
		EndedAt:    s.endedAt,
		Ticks:      s.ticks,
		Elapsed:    s.elapsed,
		Stopped:    s.stopped,
		DeathCam:   s.deathCam,
		MaxFrameDt: s.maxDt,
	}
	if h, ok := s.root.(*Hold); ok {
		r.Cancelled = h.Cancelled()
	}
	return r
}
