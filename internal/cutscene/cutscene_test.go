package cutscene

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/cutscene/internal/engine"
	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/pkg/core"
)

func player() engine.PlayerState {
	return engine.PlayerState{Position: mgl64.Vec3{1, 2, 3}, Yaw: 45, Pitch: -5, Health: 1}
}

func tick(f *engine.Frame, a Action, dt float64) (bool, engine.Snapshot) {
	f.BeginTick(f.Player(), false)
	done := a.Tick(f, dt)
	return done, f.Snapshot()
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "hold", KindHold.String())
	assert.Equal(t, "smooth", KindSmooth.String())
	assert.Equal(t, "track", KindTrack.String())
	assert.Equal(t, "wait", KindWait.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestNewHoldRequiresChildren(t *testing.T) {
	_, err := NewHold()
	assert.ErrorIs(t, err, ErrEmptyHold)
}

func TestNewSmoothRequiresMarkers(t *testing.T) {
	_, err := NewSmooth(nil, interp.Options{})
	assert.ErrorIs(t, err, interp.ErrNoMarkers)
}

func TestHoldAcquiresAndReleasesOverrides(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)

	hold.Start(f)
	_, snap := tick(f, hold, 0.1)
	assert.False(t, snap.HUD)
	assert.False(t, snap.Crosshair)
	assert.False(t, snap.CanMove)
	require.NotNil(t, snap.Orientation)
	assert.Equal(t, [3]float64{45, -5, 0}, *snap.Orientation)

	hold.Finish(f)
	assert.False(t, f.Overridden())

	// second finish must not unbalance the frame
	hold.Finish(f)
	assert.False(t, f.Overridden())
	snap = f.Snapshot()
	assert.True(t, snap.HUD)
	assert.True(t, snap.CanMove)
}

func TestHoldRestoresSavedOrientation(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)
	hold.Start(f)

	turned := player()
	turned.Yaw = 180
	f.BeginTick(turned, false)
	hold.Tick(f, 0.1)

	assert.InDelta(t, 45.0, f.Player().Yaw, 1e-9)
}

func TestHoldRunsChildrenInOrder(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	first := &Wait{Seconds: 1}
	second := &Wait{Seconds: 1}
	hold, err := NewHold(first, second)
	require.NoError(t, err)
	hold.Start(f)

	var results []bool
	for range 4 {
		done, _ := tick(f, hold, 0.5)
		results = append(results, done)
	}
	assert.Equal(t, []bool{false, false, false, true}, results)
	assert.InDelta(t, 2.0, hold.Elapsed(), 1e-9)
}

func TestHoldEndsWhenEditing(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	tr := &Track{Position: mgl64.Vec3{0, 0, 10}, Target: mgl64.Vec3{10, 0, 10}, Duration: 10}
	hold, err := NewHold(tr)
	require.NoError(t, err)
	hold.Start(f)

	f.BeginTick(player(), true)
	assert.True(t, hold.Tick(f, 0.1))
	assert.NotNil(t, f.Snapshot().Camera, "child still forces the camera on the last frame")
	assert.InDelta(t, 0.1, tr.elapsed, 1e-9)
}

func TestHoldCancel(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)
	hold.Start(f)

	assert.False(t, hold.Cancel(), "not cancellable")
	done, _ := tick(f, hold, 0.1)
	assert.False(t, done)

	hold.Cancellable = true
	assert.True(t, hold.Cancel())
	done, _ = tick(f, hold, 0.1)
	assert.True(t, done)
	assert.True(t, hold.Cancelled())
}

func TestHoldSubtitles(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)
	sub := core.DefaultSubtitle()
	sub.Start, sub.End, sub.Text = 0.5, 1, "hello"
	hold.Subtitles = []core.Subtitle{sub}
	hold.Background = &engine.HUDRect{X: 0, Y: 0.9, Width: 1, Height: 0.1, Alpha: 0.5}
	hold.Start(f)

	var shown []int
	for range 4 {
		_, snap := tick(f, hold, 0.5)
		shown = append(shown, len(snap.Subtitles))
		assert.Len(t, snap.Rects, len(snap.Subtitles))
	}
	assert.Equal(t, []int{0, 1, 1, 0}, shown)
}

func TestSmoothDrivesCamera(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	markers := []core.Marker{
		{Position: mgl64.Vec3{0, 0, 0}, Yaw: 0},
		{Position: mgl64.Vec3{10, 0, 0}, Yaw: 90},
	}
	s, err := NewSmooth(markers, interp.Options{SecondsPerMarker: 1, MaxStep: 1})
	require.NoError(t, err)
	s.Start(f)

	ticks := 0
	for {
		done, snap := tick(f, s, 0.5)
		ticks++
		require.NotNil(t, snap.Camera)
		assert.Zero(t, snap.Camera[5], "roll")
		if done {
			assert.InDelta(t, 10.0, snap.Camera[0], 1e-9)
			break
		}
		require.Less(t, ticks, 100)
	}
	assert.Equal(t, 4, ticks)
}

func TestTrackFramesTarget(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	tr := &Track{Position: mgl64.Vec3{0, 0, 0}, Target: mgl64.Vec3{-10, 0, 0}, Duration: 1}
	tr.Start(f)

	done, snap := tick(f, tr, 0.5)
	assert.False(t, done)
	require.NotNil(t, snap.Camera)
	assert.InDelta(t, 90.0, snap.Camera[3], 1e-9)
	assert.InDelta(t, 0.0, snap.Camera[4], 1e-9)

	done, _ = tick(f, tr, 0.5)
	assert.True(t, done)
}

func TestTrackUntil(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	ready := false
	tr := &Track{
		Position: mgl64.Vec3{0, 0, 0},
		Target:   mgl64.Vec3{0, 10, 0},
		Until:    func(engine.Host) bool { return ready },
	}
	tr.Start(f)
	for range 10 {
		done, _ := tick(f, tr, 1)
		assert.False(t, done)
	}
	ready = true
	done, _ := tick(f, tr, 1)
	assert.True(t, done)
}

func TestWaitHoldsPose(t *testing.T) {
	f := engine.NewFrame(player(), nil)
	pose := core.Pose{Position: mgl64.Vec3{5, 5, 5}, Yaw: 10}
	w := &Wait{Seconds: 1, Pose: &pose}
	w.Start(f)

	done, snap := tick(f, w, 0.4)
	assert.False(t, done)
	require.NotNil(t, snap.Camera)
	assert.Equal(t, pose.Array(), *snap.Camera)

	bare := &Wait{Seconds: 0.1}
	bare.Start(f)
	done, snap = tick(f, bare, 0.4)
	assert.True(t, done)
	assert.Nil(t, snap.Camera)
}

func TestDeathCameraNoView(t *testing.T) {
	calls := 0
	f := engine.NewFrame(player(), func(_, _ mgl64.Vec3) bool {
		calls++
		return false
	})
	hold, ok := DeathCamera(f, mgl64.Vec3{}, rand.New(rand.NewPCG(1, 2)))
	assert.False(t, ok)
	assert.Nil(t, hold)
	assert.Equal(t, deathCamTries, calls)
}

func TestDeathCameraTracksUntilAlive(t *testing.T) {
	target := mgl64.Vec3{100, 200, 10}
	f := engine.NewFrame(player(), nil)
	hold, ok := DeathCamera(f, target, rand.New(rand.NewPCG(7, 7)))
	require.True(t, ok)
	require.Len(t, hold.Children(), 1)

	tr, ok := hold.Children()[0].(*Track)
	require.True(t, ok)
	dist := tr.Position.Sub(target).Len()
	assert.GreaterOrEqual(t, dist, deathCamMinDistance)
	assert.LessOrEqual(t, dist, deathCamMinDistance+deathCamDistSpread)

	dead := player()
	dead.Health = 0
	f.BeginTick(dead, false)
	hold.Start(f)
	for range 5 {
		f.BeginTick(dead, false)
		assert.False(t, hold.Tick(f, 0.1))
	}
	f.BeginTick(player(), false)
	assert.True(t, hold.Tick(f, 0.1))
}

func TestDeathCameraAcceptsLaterTry(t *testing.T) {
	calls := 0
	f := engine.NewFrame(player(), func(_, _ mgl64.Vec3) bool {
		calls++
		return calls == 25
	})
	_, ok := DeathCamera(f, mgl64.Vec3{}, rand.New(rand.NewPCG(3, 4)))
	assert.True(t, ok)
}

func TestSessionLifecycle(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hold, err := NewHold(&Wait{Seconds: 1})
	require.NoError(t, err)

	s := NewSession("intro", hold, player(), nil, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	assert.Equal(t, "intro", s.Name())

	snap := s.Tick(player(), false, 0.5)
	assert.False(t, snap.Done)
	assert.False(t, snap.HUD)

	snap = s.Tick(player(), false, 0.75)
	assert.True(t, snap.Done)
	assert.True(t, snap.HUD, "overrides released on the final tick")
	assert.True(t, snap.CanMove)
	assert.True(t, s.Done())

	snap = s.Tick(player(), false, 0.5)
	assert.True(t, snap.Done)

	r := s.Record()
	assert.Equal(t, "intro", r.Cutscene)
	assert.Equal(t, uint(2), r.Ticks)
	assert.InDelta(t, 1.25, r.Elapsed, 1e-9)
	assert.InDelta(t, 0.75, r.MaxFrameDt, 1e-9)
	assert.Equal(t, time.Second, r.Duration())
	assert.False(t, r.Cancelled)
	assert.False(t, r.Stopped)
}

func TestSessionStopAndClose(t *testing.T) {
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)
	s := NewSession("x", hold, player(), nil, AsDeathCam())

	s.Tick(player(), false, 0.1)
	assert.True(t, s.Frame().Overridden())

	s.Stop()
	assert.False(t, s.Frame().Overridden())
	s.Close()
	s.Close()
	assert.False(t, s.Frame().Overridden())

	r := s.Record()
	assert.True(t, r.Stopped)
	assert.True(t, r.DeathCam)
}

func TestSessionCancel(t *testing.T) {
	hold, err := NewHold(&Wait{Seconds: 10})
	require.NoError(t, err)
	hold.Cancellable = true
	s := NewSession("x", hold, player(), nil)

	s.Tick(player(), false, 0.1)
	assert.True(t, s.Cancel())
	snap := s.Tick(player(), false, 0.1)
	assert.True(t, snap.Done)
	assert.True(t, s.Record().Cancelled)
	assert.False(t, s.Cancel(), "finished sessions cannot be cancelled")
}
